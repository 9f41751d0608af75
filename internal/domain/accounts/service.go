package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrmgate/internal/domain/audit"
	"hrmgate/internal/domain/auth"
)

// Event types published on the user lifecycle topic.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Role       auth.Role `json:"role"`
	ActorID    string    `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers lifecycle events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, key string, event any)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// SecretSealer encrypts MFA secrets at rest.
type SecretSealer interface {
	Configured() bool
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Service struct {
	repo      Repository
	events    Publisher
	audit     AuditRecorder
	sealer    SecretSealer
	mfaIssuer string
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithAudit(a AuditRecorder) Option {
	return func(s *Service) { s.audit = a }
}

func WithSealer(sealer SecretSealer, issuer string) Option {
	return func(s *Service) {
		s.sealer = sealer
		s.mfaIssuer = issuer
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		mfaIssuer: "hrmgate",
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Repository() Repository {
	return s.repo
}

// Authenticate verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password, mfaCode string) (auth.User, error) {
	acct, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, auth.ErrNotFound) {
		return auth.User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("find account: %w", err)
	}
	if acct.PasswordHash == "" || auth.CheckPassword(acct.PasswordHash, password) != nil {
		return auth.User{}, auth.ErrInvalidCredentials
	}
	if acct.MFAEnabled {
		if err := s.verifyMFA(acct, mfaCode); err != nil {
			return auth.User{}, err
		}
	}
	return acct.User, nil
}

func (s *Service) Get(ctx context.Context, id string) (auth.User, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return auth.User{}, err
	}
	return acct.User, nil
}

// ListUsers returns every account except administrators.
func (s *Service) ListUsers(ctx context.Context) ([]auth.User, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]auth.User, 0, len(all))
	for _, acct := range all {
		if acct.Role == auth.RoleAdmin {
			continue
		}
		out = append(out, acct.User)
	}
	return out, nil
}

func (s *Service) CreateUserAccount(ctx context.Context, req NewAccount, requester *auth.User) (auth.User, error) {
	if !auth.HasPermission(requester, auth.PermUsersCreate) {
		return auth.User{}, auth.ErrUnauthorized
	}
	if !req.Role.Assignable() {
		return auth.User{}, fmt.Errorf("%w: %q", auth.ErrInvalidRole, req.Role)
	}

	email := NormalizeEmail(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return auth.User{}, auth.ErrAlreadyExists
	} else if !errors.Is(err, auth.ErrNotFound) {
		return auth.User{}, fmt.Errorf("find account: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return auth.User{}, fmt.Errorf("hash password: %w", err)
	}

	acct := Account{
		User:         auth.NewUser(s.newID(), email, req.Name, req.Role, s.now()),
		PasswordHash: hash,
	}
	acct.EmployeeID = req.EmployeeID
	if err := s.repo.Insert(ctx, acct); err != nil {
		return auth.User{}, err
	}

	s.record(ctx, requester, "user.create", acct.ID, nil, acct.User)
	s.publish(ctx, EventUserCreated, acct.User, requester)
	return acct.User, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, patch Patch, requester *auth.User) (auth.User, error) {
	if !auth.HasPermission(requester, auth.PermUsersUpdate) {
		return auth.User{}, auth.ErrUnauthorized
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return auth.User{}, err
	}

	before := acct.User.Clone()
	patch.apply(&acct.User)
	if acct.Email != before.Email {
		other, err := s.repo.FindByEmail(ctx, acct.Email)
		switch {
		case err == nil && other.ID != acct.ID:
			return auth.User{}, auth.ErrAlreadyExists
		case err != nil && !errors.Is(err, auth.ErrNotFound):
			return auth.User{}, fmt.Errorf("find account: %w", err)
		}
	}
	if err := s.repo.Update(ctx, acct); err != nil {
		return auth.User{}, err
	}

	s.record(ctx, requester, "user.update", acct.ID, before, acct.User)
	s.publish(ctx, EventUserUpdated, acct.User, requester)
	return acct.User, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string, requester *auth.User) error {
	if !auth.HasPermission(requester, auth.PermUsersDelete) {
		return auth.ErrUnauthorized
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if acct.Role == auth.RoleAdmin {
		return auth.ErrProtectedAccount
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, requester, "user.delete", acct.ID, acct.User, nil)
	s.publish(ctx, EventUserDeleted, acct.User, requester)
	return nil
}

func (s *Service) record(ctx context.Context, actor *auth.User, action, entityID string, before, after any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		ActorID:    actorID(actor),
		Action:     action,
		EntityType: "user",
		EntityID:   entityID,
		Before:     before,
		After:      after,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit record failed", "action", action, "userId", entityID, "err", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, user auth.User, actor *auth.User) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, user.ID, UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		ActorID:    actorID(actor),
		OccurredAt: s.now(),
	})
}

func actorID(actor *auth.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
