package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBadgerStorage(t *testing.T) {
	db, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	storage := NewBadgerStorage(db, time.Hour)

	value, err := storage.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, storage.Set(ctx, "k", []byte("v")))
	value, err = storage.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	require.NoError(t, storage.Delete(ctx, "k"))
	require.NoError(t, storage.Delete(ctx, "k"))
	value, err = storage.Get(ctx, "k")
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestStoreOverBadger(t *testing.T) {
	db, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	storage := NewBadgerStorage(db, 0)
	s := Open(ctx, storage, newAccounts(t), WithSlotKey(SlotKey("abc")))
	user, err := s.SignIn(ctx, "manager@example", "demo123")
	require.NoError(t, err)

	again := Open(ctx, storage, newAccounts(t), WithSlotKey(SlotKey("abc")))
	require.True(t, again.IsAuthenticated())
	require.Equal(t, user.Email, again.User().Email)
	require.Equal(t, "3", again.User().EmployeeID)
}

func TestBadgerCollectGarbageInMemory(t *testing.T) {
	db, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, NewBadgerStorage(db, time.Hour).CollectGarbage(context.Background()))
}
