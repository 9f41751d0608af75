package auth

import (
	"sort"

	"github.com/goccy/go-json"
)

type Permission string

// PermissionAll is held only by administrators and satisfies every check.
const PermissionAll Permission = "*"

const (
	PermEmployeesRead         Permission = "employees:read"
	PermEmployeesReadOwn      Permission = "employees:read:own"
	PermEmployeesWrite        Permission = "employees:write"
	PermEmployeesDelete       Permission = "employees:delete"
	PermEmployeesSalary       Permission = "employees:salary"
	PermPerformanceRead       Permission = "performance:read"
	PermPerformanceReadOwn    Permission = "performance:read:own"
	PermPerformanceWrite      Permission = "performance:write"
	PermPerformanceWriteTeam  Permission = "performance:write:team"
	PermAnalyticsReadBasic    Permission = "analytics:read:basic"
	PermAnalyticsReadAdvanced Permission = "analytics:read:advanced"
	PermUsersCreate           Permission = "users:create"
	PermUsersUpdate           Permission = "users:update"
	PermUsersDelete           Permission = "users:delete"
	PermSystemManage          Permission = "system:manage"
	PermPayrollAccess         Permission = "payroll:access"
	PermDataExport            Permission = "data:export"
)

// RolePermissions is the fixed catalog. Non-admin users always carry exactly
// the entry for their role.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAll,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermPerformanceRead,
		PermPerformanceWrite,
		PermAnalyticsReadBasic,
	},
	RoleManager: {
		PermEmployeesRead,
		PermPerformanceRead,
		PermPerformanceWriteTeam,
		PermAnalyticsReadBasic,
	},
	RoleEmployee: {
		PermEmployeesReadOwn,
		PermPerformanceReadOwn,
	},
}

// PermissionsForRole returns a fresh copy of the catalog entry for role.
func PermissionsForRole(role Role) PermissionSet {
	return NewPermissionSet(RolePermissions[role]...)
}

type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(perm Permission) bool {
	_, ok := s[perm]
	return ok
}

func (s PermissionSet) Unrestricted() bool {
	return s.Has(PermissionAll)
}

func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for perm := range s {
		if !other.Has(perm) {
			return false
		}
	}
	return true
}

func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for perm := range s {
		out[perm] = struct{}{}
	}
	return out
}

// Slice returns the permissions sorted, for stable output.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for perm := range s {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, perm := range perms {
		out[i] = string(perm)
	}
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(PermissionSet, len(raw))
	for _, perm := range raw {
		set[Permission(perm)] = struct{}{}
	}
	*s = set
	return nil
}

func PermissionSetFromStrings(values []string) PermissionSet {
	set := make(PermissionSet, len(values))
	for _, value := range values {
		set[Permission(value)] = struct{}{}
	}
	return set
}
