package middleware

import (
	"net/http"

	"hrmgate/internal/domain/auth"
	"hrmgate/internal/transport/http/api"
)

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequirePermission(authz *auth.Authorizer, perm auth.Permission) func(http.Handler) http.Handler {
	return require(func(user *auth.User) bool { return authz.HasPermission(user, perm) })
}

func RequireRoute(authz *auth.Authorizer, path string) func(http.Handler) http.Handler {
	return require(func(user *auth.User) bool { return authz.CanAccessRoute(user, path) })
}

func RequireOperation(authz *auth.Authorizer, op string) func(http.Handler) http.Handler {
	return require(func(user *auth.User) bool { return authz.CanPerformSensitiveOperation(user, op) })
}

func require(allowed func(*auth.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				unauthorized(w, r)
				return
			}
			if !allowed(user) {
				Denied(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Denied writes the fixed access-denied response.
func Denied(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusForbidden, "access_denied", "access denied", GetRequestID(r.Context()))
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
}
