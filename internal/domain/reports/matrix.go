package reports

import (
	"sort"
	"time"

	"hrmgate/internal/domain/auth"
)

// Grant is one cell of the access matrix.
type Grant struct {
	Target     string             `json:"target"`
	Permission auth.Permission    `json:"permission,omitempty"`
	Allowed    map[auth.Role]bool `json:"allowed"`
}

type AccessMatrix struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Roles       []auth.Role `json:"roles"`
	Permissions []Grant     `json:"permissions"`
	Routes      []Grant     `json:"routes"`
	Operations  []Grant     `json:"operations"`
}

// BuildAccessMatrix evaluates every catalog permission, route and sensitive
// operation for a representative user of each role. The synthetic users are
// evaluated without authz's observer so they stay out of decision metrics.
func BuildAccessMatrix(authz *auth.Authorizer, now time.Time) AccessMatrix {
	policy := authz.Policy()
	authz = auth.NewAuthorizer(policy)
	subjects := make(map[auth.Role]*auth.User, len(auth.Roles))
	for _, role := range auth.Roles {
		u := auth.NewUser("matrix-"+string(role), "", string(role), role, now)
		subjects[role] = &u
	}

	m := AccessMatrix{GeneratedAt: now, Roles: append([]auth.Role(nil), auth.Roles...)}

	for _, perm := range catalogPermissions(policy) {
		g := Grant{Target: string(perm), Permission: perm, Allowed: map[auth.Role]bool{}}
		for role, u := range subjects {
			g.Allowed[role] = auth.HasPermission(u, perm)
		}
		m.Permissions = append(m.Permissions, g)
	}
	for _, path := range policy.RouteNames() {
		perm, _ := policy.RoutePermission(path)
		g := Grant{Target: path, Permission: perm, Allowed: map[auth.Role]bool{}}
		for role, u := range subjects {
			g.Allowed[role] = authz.CanAccessRoute(u, path)
		}
		m.Routes = append(m.Routes, g)
	}
	for _, op := range policy.OperationNames() {
		perm, _ := policy.OperationPermission(op)
		g := Grant{Target: op, Permission: perm, Allowed: map[auth.Role]bool{}}
		for role, u := range subjects {
			g.Allowed[role] = authz.CanPerformSensitiveOperation(u, op)
		}
		m.Operations = append(m.Operations, g)
	}
	return m
}

// catalogPermissions lists every concrete permission named by the catalog or
// the policy tables.
func catalogPermissions(policy auth.Policy) []auth.Permission {
	seen := map[auth.Permission]struct{}{}
	for _, perms := range auth.RolePermissions {
		for _, perm := range perms {
			if perm != auth.PermissionAll {
				seen[perm] = struct{}{}
			}
		}
	}
	for _, perm := range policy.Routes {
		seen[perm] = struct{}{}
	}
	for _, perm := range policy.Operations {
		seen[perm] = struct{}{}
	}
	out := make([]auth.Permission, 0, len(seen))
	for perm := range seen {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
