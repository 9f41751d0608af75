package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hrmgate/internal/domain/audit"
	"hrmgate/internal/domain/auth"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	repo  Repository
	users Directory
	audit AuditRecorder
	now   func() time.Time
}

func NewService(repo Repository, users Directory, recorder AuditRecorder) *Service {
	return &Service{repo: repo, users: users, audit: recorder, now: time.Now}
}

// List returns rows between from and to inclusive that the requester may
// read. Holders of employees:read:own only see their own rows.
func (s *Service) List(ctx context.Context, requester *auth.User, from, to time.Time) ([]Record, error) {
	if requester == nil {
		return nil, auth.ErrUnauthorized
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	rows, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	names := map[string]auth.User{}
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		if !auth.HasScopedPermission(requester, auth.PermEmployeesRead, auth.Target{UserID: rec.UserID}) {
			continue
		}
		if rec.UserName == "" {
			s.annotate(ctx, &rec, names)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Mark records a check-in or check-out for userID on date. Only the hr role
// may mark attendance. An empty clock means now.
func (s *Service) Mark(ctx context.Context, requester *auth.User, userID string, date time.Time, kind Kind, clock string) (Record, error) {
	if requester == nil || requester.Role != auth.RoleHR {
		return Record{}, auth.ErrUnauthorized
	}
	if !kind.Valid() {
		return Record{}, ErrInvalidKind
	}
	normalized, err := normalizeClock(clock, s.now())
	if err != nil {
		return Record{}, err
	}
	if date.IsZero() {
		date = s.now()
	}

	target, err := s.users.Get(ctx, userID)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.repo.Mark(ctx, userID, date, kind, normalized)
	if err != nil {
		return Record{}, fmt.Errorf("mark attendance: %w", err)
	}
	rec.UserName, rec.UserEmail, rec.UserRole = target.Name, target.Email, target.Role

	if s.audit != nil {
		entry := audit.Entry{
			ActorID:    requester.ID,
			Action:     "attendance.mark",
			EntityType: "attendance",
			EntityID:   rec.ID,
			After:      rec,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			slog.WarnContext(ctx, "audit record failed", "action", entry.Action, "userId", userID, "err", err)
		}
	}
	return rec, nil
}

func (s *Service) annotate(ctx context.Context, rec *Record, cache map[string]auth.User) {
	user, ok := cache[rec.UserID]
	if !ok {
		found, err := s.users.Get(ctx, rec.UserID)
		if err != nil {
			return
		}
		cache[rec.UserID] = found
		user = found
	}
	rec.UserName, rec.UserEmail, rec.UserRole = user.Name, user.Email, user.Role
}

func normalizeClock(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Format(ClockLayout), nil
	}
	for _, layout := range []string{ClockLayout, "15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(ClockLayout), nil
		}
	}
	return "", ErrInvalidClock
}
