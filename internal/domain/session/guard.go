package session

import "hrmgate/internal/domain/auth"

type Decision int

const (
	DecisionLoading Decision = iota
	DecisionUnauthenticated
	DecisionDenied
	DecisionAllowed
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionDenied:
		return "denied"
	case DecisionAllowed:
		return "allowed"
	}
	return "unknown"
}

// Guard decides whether the current session may reach a protected page.
type Guard struct {
	authz *auth.Authorizer
}

func NewGuard(authz *auth.Authorizer) *Guard {
	return &Guard{authz: authz}
}

// Evaluate checks the route table for path and, when required is set, that
// the user also holds that permission.
func (g *Guard) Evaluate(s *Store, path string, required auth.Permission) Decision {
	if s.IsLoading() {
		return DecisionLoading
	}
	user := s.User()
	if !s.IsAuthenticated() || user == nil {
		return DecisionUnauthenticated
	}
	if !g.authz.CanAccessRoute(user, path) {
		return DecisionDenied
	}
	if required != "" && !g.authz.HasPermission(user, required) {
		return DecisionDenied
	}
	return DecisionAllowed
}
