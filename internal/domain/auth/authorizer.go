package auth

type DecisionKind string

const (
	DecisionPermission DecisionKind = "permission"
	DecisionRoute      DecisionKind = "route"
	DecisionOperation  DecisionKind = "operation"
)

// DecisionObserver is notified of every decision, e.g. to export metrics.
type DecisionObserver interface {
	ObserveDecision(kind DecisionKind, role Role, target string, allowed bool)
}

type Authorizer struct {
	policy   Policy
	observer DecisionObserver
}

type AuthorizerOption func(*Authorizer)

func WithObserver(observer DecisionObserver) AuthorizerOption {
	return func(a *Authorizer) {
		a.observer = observer
	}
}

func NewAuthorizer(policy Policy, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{policy: policy}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authorizer) Policy() Policy {
	return a.policy
}

// HasPermission is the single membership check behind every decision.
func HasPermission(user *User, perm Permission) bool {
	if user == nil {
		return false
	}
	if user.Permissions.Unrestricted() {
		return true
	}
	return user.Permissions.Has(perm)
}

func (a *Authorizer) HasPermission(user *User, perm Permission) bool {
	allowed := HasPermission(user, perm)
	a.observe(DecisionPermission, user, string(perm), allowed)
	return allowed
}

func (a *Authorizer) CanAccessRoute(user *User, path string) bool {
	allowed := a.canAccessRoute(user, path)
	a.observe(DecisionRoute, user, path, allowed)
	return allowed
}

func (a *Authorizer) canAccessRoute(user *User, path string) bool {
	if user == nil {
		return false
	}
	perm, ok := a.policy.RoutePermission(path)
	if !ok {
		return true
	}
	return HasPermission(user, perm)
}

func (a *Authorizer) CanPerformSensitiveOperation(user *User, op string) bool {
	allowed := a.canPerformSensitiveOperation(user, op)
	a.observe(DecisionOperation, user, op, allowed)
	return allowed
}

func (a *Authorizer) canPerformSensitiveOperation(user *User, op string) bool {
	if user == nil {
		return false
	}
	perm, ok := a.policy.OperationPermission(op)
	if !ok {
		return false
	}
	return HasPermission(user, perm)
}

func (a *Authorizer) observe(kind DecisionKind, user *User, target string, allowed bool) {
	if a.observer == nil {
		return
	}
	role := Role("anonymous")
	if user != nil {
		role = user.Role
	}
	a.observer.ObserveDecision(kind, role, target, allowed)
}
