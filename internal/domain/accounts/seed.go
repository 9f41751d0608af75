package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrmgate/internal/domain/auth"
)

type SeedAccount struct {
	Email      string
	Name       string
	Role       auth.Role
	EmployeeID string
}

// DemoAccounts returns one demo account per role. Empty emails are skipped
// by Seed.
func DemoAccounts(adminEmail, hrEmail, managerEmail, employeeEmail string) []SeedAccount {
	return []SeedAccount{
		{Email: adminEmail, Name: "System Admin", Role: auth.RoleAdmin},
		{Email: hrEmail, Name: "HR Manager", Role: auth.RoleHR},
		{Email: managerEmail, Name: "Department Manager", Role: auth.RoleManager, EmployeeID: "3"},
		{Email: employeeEmail, Name: "Regular Employee", Role: auth.RoleEmployee, EmployeeID: "1"},
	}
}

// Seed inserts the given accounts unless an account with the same email
// exists. Each account gets its own bcrypt hash of password.
func (s *Service) Seed(ctx context.Context, seeds []SeedAccount, password string) (int, error) {
	if strings.TrimSpace(password) == "" {
		return 0, errors.New("seed password is required")
	}
	created := 0
	for _, seed := range seeds {
		email := NormalizeEmail(seed.Email)
		if email == "" {
			continue
		}
		if !seed.Role.Valid() {
			return created, fmt.Errorf("seed %s: %w", email, auth.ErrInvalidRole)
		}
		_, err := s.repo.FindByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, auth.ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return created, err
		}
		acct := Account{
			User:         auth.NewUser(s.newID(), email, seed.Name, seed.Role, s.now()),
			PasswordHash: hash,
		}
		acct.EmployeeID = seed.EmployeeID
		if err := s.repo.Insert(ctx, acct); err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}
		created++
	}
	return created, nil
}
