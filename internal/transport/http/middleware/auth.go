package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hrmgate/internal/domain/auth"
	"hrmgate/internal/domain/session"
	"hrmgate/internal/requestctx"
)

type ctxKey string

const (
	ctxKeyUser    ctxKey = "user"
	ctxKeySession ctxKey = "session"
)

// AccountService is the account backend sessions are resolved against.
type AccountService interface {
	session.AccountService
	Get(ctx context.Context, id string) (auth.User, error)
}

// Auth resolves the bearer token to its server-side session slot. Requests
// without a valid token, or whose slot no longer matches a live account,
// continue anonymously; RequireUser and the permission checks reject them.
func Auth(secret string, storage session.Storage, accounts AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil || claims.SessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			store := session.Open(ctx, storage, accounts, session.WithSlotKey(session.SlotKey(claims.SessionID)))
			ctx = context.WithValue(ctx, ctxKeySession, store)

			user := store.User()
			if user == nil || user.ID != claims.UserID {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			current, ok := reverify(ctx, accounts, user)
			if !ok {
				if err := store.SignOut(ctx); err != nil {
					slog.WarnContext(ctx, "stale session not cleared", "err", err)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if !sameProfile(*user, current) {
				if err := store.Refresh(ctx, current); err != nil {
					slog.WarnContext(ctx, "session refresh failed", "user_id", user.ID, "err", err)
				}
				user = &current
			}

			ctx = context.WithValue(ctx, ctxKeyUser, user)
			ctx = requestctx.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reverify loads the live account behind the slot user. It fails when the
// account is gone or its role changed.
func reverify(ctx context.Context, accounts AccountService, user *auth.User) (auth.User, bool) {
	current, err := accounts.Get(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			slog.WarnContext(ctx, "session account lookup failed", "user_id", user.ID, "err", err)
		}
		return auth.User{}, false
	}
	return current, current.Role == user.Role
}

func sameProfile(a, b auth.User) bool {
	return a.Email == b.Email && a.Name == b.Name && a.EmployeeID == b.EmployeeID && a.Avatar == b.Avatar
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(ctx context.Context) *auth.User {
	user, _ := ctx.Value(ctxKeyUser).(*auth.User)
	return user
}

// GetSession returns the session bound to the request token, if any.
func GetSession(ctx context.Context) (*session.Store, bool) {
	store, ok := ctx.Value(ctxKeySession).(*session.Store)
	return store, ok
}

// WithUser is used by tests and internal callers to bind a user.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
