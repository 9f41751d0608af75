package auth

// Target identifies the record a scoped permission is checked against.
type Target struct {
	UserID     string
	EmployeeID string
	ManagerID  string
}

// HasScopedPermission resolves the ":own" and ":team" variants of base.
// HasPermission never does this: holding "employees:read:own" does not grant
// "employees:read". Callers that own a concrete record opt in here.
func HasScopedPermission(user *User, base Permission, target Target) bool {
	if user == nil {
		return false
	}
	if HasPermission(user, base) {
		return true
	}
	if user.Permissions.Has(base+":own") && isOwnRecord(user, target) {
		return true
	}
	if user.Permissions.Has(base+":team") && user.EmployeeID != "" && target.ManagerID == user.EmployeeID {
		return true
	}
	return false
}

func isOwnRecord(user *User, target Target) bool {
	if target.UserID != "" && target.UserID == user.ID {
		return true
	}
	return user.EmployeeID != "" && target.EmployeeID == user.EmployeeID
}
