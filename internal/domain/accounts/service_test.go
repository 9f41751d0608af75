package accounts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"hrmgate/internal/domain/audit"
	"hrmgate/internal/domain/auth"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []UserEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(UserEvent))
}

type recordingAudit struct {
	entries []audit.Entry
}

func (a *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

type plainSealer struct{}

func (plainSealer) Configured() bool { return true }
func (plainSealer) EncryptString(v string) ([]byte, error) { return []byte("sealed:" + v), nil }
func (plainSealer) DecryptString(v []byte) (string, error) { return string(v[len("sealed:"):]), nil }

func newSeededService(t *testing.T, opts ...Option) (*Service, map[auth.Role]auth.User) {
	t.Helper()
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), opts...)
	_, err := svc.Seed(ctx, DemoAccounts("admin@example", "hr@example", "manager@example", "employee@example"), "demo123")
	require.NoError(t, err)

	users := map[auth.Role]auth.User{}
	for _, email := range []string{"admin@example", "hr@example", "manager@example", "employee@example"} {
		u, err := svc.Authenticate(ctx, email, "demo123", "")
		require.NoError(t, err)
		users[u.Role] = u
	}
	return svc, users
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newSeededService(t)
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "hr@example", "demo123", "")
	require.NoError(t, err)
	require.Equal(t, auth.RoleHR, u.Role)
	require.True(t, u.Permissions.Equal(auth.PermissionsForRole(auth.RoleHR)))

	_, err = svc.Authenticate(ctx, "hr@example", "wrong", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example", "demo123", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, _ := newSeededService(t)
	created, err := svc.Seed(context.Background(), DemoAccounts("admin@example", "hr@example", "", ""), "demo123")
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestCreateUserAccount(t *testing.T) {
	pub := &recordingPublisher{}
	recorder := &recordingAudit{}
	svc, users := newSeededService(t, WithPublisher(pub), WithAudit(recorder))
	ctx := context.Background()
	admin, hr := users[auth.RoleAdmin], users[auth.RoleHR]

	req := NewAccount{Email: "new@example", Password: "pw-123456", Name: "New Manager", Role: auth.RoleManager}

	_, err := svc.CreateUserAccount(ctx, req, &hr)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = svc.CreateUserAccount(ctx, req, nil)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	created, err := svc.CreateUserAccount(ctx, req, &admin)
	require.NoError(t, err)
	require.Equal(t, auth.RoleManager, created.Role)
	require.True(t, created.Permissions.Equal(auth.PermissionsForRole(auth.RoleManager)))
	require.NotEmpty(t, created.ID)

	_, err = svc.CreateUserAccount(ctx, req, &admin)
	require.ErrorIs(t, err, auth.ErrAlreadyExists)

	_, err = svc.CreateUserAccount(ctx, NewAccount{Email: "root@example", Password: "x", Role: auth.RoleAdmin}, &admin)
	require.ErrorIs(t, err, auth.ErrInvalidRole)

	signedIn, err := svc.Authenticate(ctx, "NEW@example", "pw-123456", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, signedIn.ID)

	require.Len(t, pub.events, 1)
	require.Equal(t, EventUserCreated, pub.events[0].Type)
	require.Equal(t, admin.ID, pub.events[0].ActorID)
	require.Len(t, recorder.entries, 1)
	require.Equal(t, "user.create", recorder.entries[0].Action)
}

func TestUpdateUser(t *testing.T) {
	svc, users := newSeededService(t)
	ctx := context.Background()
	admin, employee := users[auth.RoleAdmin], users[auth.RoleEmployee]

	name := "Renamed"
	_, err := svc.UpdateUser(ctx, employee.ID, Patch{Name: &name}, &employee)
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = svc.UpdateUser(ctx, "missing", Patch{Name: &name}, &admin)
	require.ErrorIs(t, err, auth.ErrNotFound)

	updated, err := svc.UpdateUser(ctx, employee.ID, Patch{Name: &name}, &admin)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, employee.Email, updated.Email)
	require.Equal(t, auth.RoleEmployee, updated.Role)
	require.True(t, updated.Permissions.Equal(auth.PermissionsForRole(auth.RoleEmployee)))

	taken := "hr@example"
	_, err = svc.UpdateUser(ctx, employee.ID, Patch{Email: &taken}, &admin)
	require.ErrorIs(t, err, auth.ErrAlreadyExists)
}

func TestDeleteUser(t *testing.T) {
	svc, users := newSeededService(t)
	ctx := context.Background()
	admin, hr, manager := users[auth.RoleAdmin], users[auth.RoleHR], users[auth.RoleManager]

	require.ErrorIs(t, svc.DeleteUser(ctx, manager.ID, &hr), auth.ErrUnauthorized)
	require.ErrorIs(t, svc.DeleteUser(ctx, "missing", &admin), auth.ErrNotFound)
	require.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, &admin), auth.ErrProtectedAccount)

	require.NoError(t, svc.DeleteUser(ctx, manager.ID, &admin))
	_, err := svc.Get(ctx, manager.ID)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestListUsersExcludesAdmins(t *testing.T) {
	svc, _ := newSeededService(t)
	list, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, u := range list {
		require.NotEqual(t, auth.RoleAdmin, u.Role)
	}
}

func TestMFAFlow(t *testing.T) {
	svc, users := newSeededService(t, WithSealer(plainSealer{}, "hrmgate-test"))
	ctx := context.Background()
	hr := users[auth.RoleHR]

	require.ErrorIs(t, svc.EnableMFA(ctx, hr.ID, "123456"), ErrMFANotSetUp)

	setup, err := svc.SetupMFA(ctx, hr.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableMFA(ctx, hr.ID, code))

	_, err = svc.Authenticate(ctx, "hr@example", "demo123", "")
	require.ErrorIs(t, err, auth.ErrMFARequired)

	_, err = svc.Authenticate(ctx, "hr@example", "demo123", "000000x")
	require.ErrorIs(t, err, auth.ErrMFAInvalid)

	u, err := svc.Authenticate(ctx, "hr@example", "demo123", code)
	require.NoError(t, err)
	require.Equal(t, hr.ID, u.ID)
}

func TestMFAUnavailableWithoutSealer(t *testing.T) {
	svc, users := newSeededService(t)
	_, err := svc.SetupMFA(context.Background(), users[auth.RoleHR].ID)
	require.ErrorIs(t, err, ErrMFAUnavailable)
}

func TestMFAUsersGetUnavailableWhenKeyIsRemoved(t *testing.T) {
	svc, users := newSeededService(t, WithSealer(plainSealer{}, "hrmgate-test"))
	ctx := context.Background()
	hr := users[auth.RoleHR]

	setup, err := svc.SetupMFA(ctx, hr.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableMFA(ctx, hr.ID, code))

	keyless := NewService(svc.Repository())
	_, err = keyless.Authenticate(ctx, "hr@example", "demo123", code)
	require.ErrorIs(t, err, ErrMFAUnavailable)
	_, err = keyless.Authenticate(ctx, "hr@example", "demo123", "")
	require.ErrorIs(t, err, ErrMFAUnavailable)

	_, err = keyless.Authenticate(ctx, "manager@example", "demo123", "")
	require.NoError(t, err)
}

type failingEmailLookup struct {
	*MemoryRepository
	err error
}

func (r failingEmailLookup) FindByEmail(context.Context, string) (Account, error) {
	return Account{}, r.err
}

func TestUpdateUserSurfacesEmailLookupFailure(t *testing.T) {
	ctx := context.Background()
	seeded, users := newSeededService(t)
	lookupErr := errors.New("connection reset")
	svc := NewService(failingEmailLookup{MemoryRepository: seeded.Repository().(*MemoryRepository), err: lookupErr})

	admin := users[auth.RoleAdmin]
	email := "moved@example"
	_, err := svc.UpdateUser(ctx, users[auth.RoleEmployee].ID, Patch{Email: &email}, &admin)
	require.ErrorIs(t, err, lookupErr)

	unchanged, err := seeded.Get(ctx, users[auth.RoleEmployee].ID)
	require.NoError(t, err)
	require.Equal(t, "employee@example", unchanged.Email)
}
