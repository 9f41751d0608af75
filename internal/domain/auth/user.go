package auth

import "time"

// User is the authorization subject. A nil *User is an anonymous caller.
type User struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        Role          `json:"role"`
	EmployeeID  string        `json:"employeeId,omitempty"`
	Permissions PermissionSet `json:"permissions"`
	Avatar      string        `json:"avatar,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// NewUser builds a user whose permissions are the catalog entry for role.
func NewUser(id, email, name string, role Role, createdAt time.Time) User {
	return User{
		ID:          id,
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: PermissionsForRole(role),
		CreatedAt:   createdAt,
	}
}

func (u User) Clone() User {
	out := u
	out.Permissions = u.Permissions.Clone()
	return out
}
