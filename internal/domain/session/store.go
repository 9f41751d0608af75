package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/auth"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// AccountService is the account backend a Store signs in against.
type AccountService interface {
	Authenticate(ctx context.Context, email, password, mfaCode string) (auth.User, error)
	CreateUserAccount(ctx context.Context, req accounts.NewAccount, requester *auth.User) (auth.User, error)
	UpdateUser(ctx context.Context, id string, patch accounts.Patch, requester *auth.User) (auth.User, error)
	DeleteUser(ctx context.Context, id string, requester *auth.User) error
}

// Store holds at most one authenticated user in its storage slot.
// Operations are serialized; readers observe intermediate loading states.
type Store struct {
	storage  Storage
	accounts AccountService
	key      string

	opMu sync.Mutex

	mu    sync.RWMutex
	state State
	user  *auth.User
}

type Option func(*Store)

func WithSlotKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func New(storage Storage, accounts AccountService, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		accounts: accounts,
		key:      DefaultSlotKey,
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a Store and resolves any persisted session.
func Open(ctx context.Context, storage Storage, accounts AccountService, opts ...Option) *Store {
	s := New(storage, accounts, opts...)
	s.Resolve(ctx)
	return s
}

// Resolve loads the persisted slot. An unreadable slot leaves the store
// anonymous.
func (s *Store) Resolve(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setState(StateLoading, s.snapshotUser())
	user, err := s.read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "session resolve failed", "slot", s.key, "err", err)
		s.setState(StateAnonymous, nil)
		return
	}
	if user == nil {
		s.setState(StateAnonymous, nil)
		return
	}
	s.setState(StateAuthenticated, user)
}

type signInOptions struct {
	mfaCode string
}

type SignInOption func(*signInOptions)

func WithMFACode(code string) SignInOption {
	return func(o *signInOptions) { o.mfaCode = code }
}

// SignIn verifies credentials and persists the user in the slot. On failure
// the store returns to its previous state.
func (s *Store) SignIn(ctx context.Context, email, password string, opts ...SignInOption) (auth.User, error) {
	var o signInOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	prevState, prevUser := s.snapshot()
	s.setState(StateLoading, prevUser)

	user, err := s.accounts.Authenticate(ctx, email, password, o.mfaCode)
	if err != nil {
		s.setState(prevState, prevUser)
		return auth.User{}, err
	}
	if err := s.write(ctx, user); err != nil {
		s.setState(prevState, prevUser)
		return auth.User{}, err
	}
	s.setState(StateAuthenticated, &user)
	return user.Clone(), nil
}

// SignOut clears the slot. Signing out an anonymous store is a no-op.
func (s *Store) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, prevUser := s.snapshot()
	s.setState(StateLoading, prevUser)
	err := s.storage.Delete(ctx, s.key)
	s.setState(StateAnonymous, nil)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Refresh rewrites the slot with a newer copy of the signed-in user. It is a
// no-op unless user is the one already signed in.
func (s *Store) Refresh(ctx context.Context, user auth.User) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	state, current := s.snapshot()
	if state != StateAuthenticated || current == nil || current.ID != user.ID {
		return nil
	}
	if err := s.write(ctx, user); err != nil {
		return err
	}
	s.setState(StateAuthenticated, &user)
	return nil
}

// CurrentUser reads the slot. A missing slot is (nil, nil).
func (s *Store) CurrentUser(ctx context.Context) (*auth.User, error) {
	return s.read(ctx)
}

// CreateUserAccount creates an account on behalf of the signed-in user.
func (s *Store) CreateUserAccount(ctx context.Context, req accounts.NewAccount) (auth.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	state, requester := s.snapshot()
	if requester == nil {
		return auth.User{}, fmt.Errorf("must be logged in to create users: %w", auth.ErrUnauthorized)
	}
	s.setState(StateLoading, requester)
	defer s.setState(state, requester)

	return s.accounts.CreateUserAccount(ctx, req, requester)
}

// UpdateUser patches an account on behalf of the signed-in user. Updating
// the signed-in user's own profile refreshes the slot.
func (s *Store) UpdateUser(ctx context.Context, id string, patch accounts.Patch) (auth.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	state, requester := s.snapshot()
	updated, err := s.accounts.UpdateUser(ctx, id, patch, requester)
	if err != nil {
		return auth.User{}, err
	}
	if requester != nil && requester.ID == updated.ID {
		if err := s.write(ctx, updated); err != nil {
			return updated, err
		}
		s.setState(state, &updated)
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, requester := s.snapshot()
	return s.accounts.DeleteUser(ctx, id, requester)
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the cached signed-in user, or nil.
func (s *Store) User() *auth.User {
	return s.snapshotUser()
}

func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

func (s *Store) IsLoading() bool {
	state := s.State()
	return state == StateLoading || state == StateUninitialized
}

func (s *Store) read(ctx context.Context) (*auth.User, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var user auth.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &user, nil
}

func (s *Store) write(ctx context.Context, user auth.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.storage.Set(ctx, s.key, raw)
}

func (s *Store) snapshot() (State, *auth.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, cloneUser(s.user)
}

func (s *Store) snapshotUser() *auth.User {
	_, user := s.snapshot()
	return user
}

func (s *Store) setState(state State, user *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = cloneUser(user)
}

func cloneUser(user *auth.User) *auth.User {
	if user == nil {
		return nil
	}
	out := user.Clone()
	return &out
}
