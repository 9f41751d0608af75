package accounts

import (
	"context"
	"strings"

	"hrmgate/internal/domain/auth"
)

// Account is a user together with its credentials. Credentials never leave
// this package; callers receive the embedded auth.User.
type Account struct {
	auth.User
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

func (a Account) Clone() Account {
	out := a
	out.User = a.User.Clone()
	if a.MFASecretEnc != nil {
		out.MFASecretEnc = append([]byte(nil), a.MFASecretEnc...)
	}
	return out
}

type NewAccount struct {
	Email      string
	Password   string
	Name       string
	Role       auth.Role
	EmployeeID string
}

// Patch carries the editable profile fields. Nil fields are left untouched.
// Role and permissions are not editable.
type Patch struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	EmployeeID *string `json:"employeeId,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.EmployeeID == nil && p.Avatar == nil
}

func (p Patch) apply(u *auth.User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.EmployeeID != nil {
		u.EmployeeID = strings.TrimSpace(*p.EmployeeID)
	}
	if p.Avatar != nil {
		u.Avatar = strings.TrimSpace(*p.Avatar)
	}
}

// Repository persists accounts. Lookups return auth.ErrNotFound for missing
// rows and Insert/Update return auth.ErrAlreadyExists on an email collision.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	Insert(ctx context.Context, account Account) error
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Account, error)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
