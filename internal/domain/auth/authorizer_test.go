package auth

import (
	"testing"
	"time"
)

func userWithRole(role Role) *User {
	u := NewUser("id-"+string(role), string(role)+"@example.com", string(role), role, time.Now())
	return &u
}

var samplePermissions = []Permission{
	PermEmployeesRead, PermEmployeesReadOwn, PermEmployeesWrite, PermEmployeesDelete,
	PermEmployeesSalary, PermPerformanceRead, PermPerformanceReadOwn, PermPerformanceWrite,
	PermPerformanceWriteTeam, PermAnalyticsReadBasic, PermAnalyticsReadAdvanced,
	PermUsersCreate, PermUsersUpdate, PermUsersDelete, PermSystemManage,
	PermPayrollAccess, PermDataExport, "employees:*", "", "never:referenced:anywhere",
}

func TestHasPermissionNonAdminIsExactCatalogMembership(t *testing.T) {
	for _, role := range []Role{RoleHR, RoleManager, RoleEmployee} {
		user := userWithRole(role)
		catalog := NewPermissionSet(RolePermissions[role]...)
		for _, perm := range samplePermissions {
			if got, want := HasPermission(user, perm), catalog.Has(perm); got != want {
				t.Fatalf("HasPermission(%s, %q) = %v, want %v", role, perm, got, want)
			}
		}
	}
}

func TestHasPermissionAdminWildcard(t *testing.T) {
	admin := userWithRole(RoleAdmin)
	for _, perm := range samplePermissions {
		if !HasPermission(admin, perm) {
			t.Fatalf("admin denied %q", perm)
		}
	}
}

func TestHasPermissionNilUser(t *testing.T) {
	for _, perm := range append(samplePermissions, PermissionAll) {
		if HasPermission(nil, perm) {
			t.Fatalf("nil user granted %q", perm)
		}
	}
}

func TestScopedPermissionIsNotUnscoped(t *testing.T) {
	employee := userWithRole(RoleEmployee)
	if HasPermission(employee, PermEmployeesRead) {
		t.Fatal("employees:read:own must not imply employees:read")
	}
}

func TestCanAccessRoute(t *testing.T) {
	authz := NewAuthorizer(DefaultPolicy())

	for _, role := range Roles {
		user := userWithRole(role)
		if got, want := authz.CanAccessRoute(user, "/employees"), HasPermission(user, PermEmployeesRead); got != want {
			t.Fatalf("%s /employees = %v, want %v", role, got, want)
		}
		if !authz.CanAccessRoute(user, "/some/unmapped/path") {
			t.Fatalf("%s denied unmapped route", role)
		}
	}

	if authz.CanAccessRoute(nil, "/some/unmapped/path") {
		t.Fatal("nil user allowed unmapped route")
	}
	if authz.CanAccessRoute(userWithRole(RoleHR), "/admin") {
		t.Fatal("hr allowed /admin")
	}
	if !authz.CanAccessRoute(userWithRole(RoleAdmin), "/admin/system") {
		t.Fatal("admin denied /admin/system")
	}
	if authz.CanAccessRoute(userWithRole(RoleManager), "/analytics/advanced") {
		t.Fatal("manager allowed /analytics/advanced")
	}
}

func TestCanPerformSensitiveOperation(t *testing.T) {
	authz := NewAuthorizer(DefaultPolicy())

	for _, role := range Roles {
		user := userWithRole(role)
		if got, want := authz.CanPerformSensitiveOperation(user, OpDeleteEmployee), HasPermission(user, PermEmployeesDelete); got != want {
			t.Fatalf("%s delete:employee = %v, want %v", role, got, want)
		}
		if authz.CanPerformSensitiveOperation(user, "unmapped:op") {
			t.Fatalf("%s allowed unmapped operation", role)
		}
	}
	if authz.CanPerformSensitiveOperation(nil, OpExportData) {
		t.Fatal("nil user allowed export")
	}
}

type recordingObserver struct {
	decisions []bool
	roles     []Role
}

func (r *recordingObserver) ObserveDecision(_ DecisionKind, role Role, _ string, allowed bool) {
	r.decisions = append(r.decisions, allowed)
	r.roles = append(r.roles, role)
}

func TestAuthorizerNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	authz := NewAuthorizer(DefaultPolicy(), WithObserver(obs))

	authz.HasPermission(userWithRole(RoleHR), PermEmployeesWrite)
	authz.CanAccessRoute(nil, "/employees")
	authz.CanPerformSensitiveOperation(userWithRole(RoleAdmin), OpAccessPayroll)

	if len(obs.decisions) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(obs.decisions))
	}
	if !obs.decisions[0] || obs.decisions[1] || !obs.decisions[2] {
		t.Fatalf("unexpected decisions %v", obs.decisions)
	}
	if obs.roles[1] != "anonymous" {
		t.Fatalf("expected anonymous role for nil user, got %s", obs.roles[1])
	}
}
