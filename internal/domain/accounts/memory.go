package accounts

import (
	"context"
	"sort"
	"sync"

	"hrmgate/internal/domain/auth"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: map[string]Account{}}
}

func (m *MemoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = NormalizeEmail(email)
	for _, acct := range m.accounts {
		if acct.Email == email {
			return acct.Clone(), nil
		}
	}
	return Account{}, auth.ErrNotFound
}

func (m *MemoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[id]
	if !ok {
		return Account{}, auth.ErrNotFound
	}
	return acct.Clone(), nil
}

func (m *MemoryRepository) Insert(_ context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return auth.ErrAlreadyExists
	}
	if m.emailTaken(account.Email, "") {
		return auth.ErrAlreadyExists
	}
	m.accounts[account.ID] = account.Clone()
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return auth.ErrNotFound
	}
	if m.emailTaken(account.Email, account.ID) {
		return auth.ErrAlreadyExists
	}
	m.accounts[account.ID] = account.Clone()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return auth.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

// List returns accounts ordered by creation time, then id.
func (m *MemoryRepository) List(_ context.Context) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		out = append(out, acct.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) emailTaken(email, exceptID string) bool {
	for id, acct := range m.accounts {
		if id != exceptID && acct.Email == email {
			return true
		}
	}
	return false
}
