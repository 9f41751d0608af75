package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every role in catalog order.
var Roles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Assignable reports whether accounts of this role may be created through the
// account API. Administrator accounts only come from seeding.
func (r Role) Assignable() bool {
	switch r {
	case RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
	return role, nil
}
