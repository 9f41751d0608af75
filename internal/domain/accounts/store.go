package accounts

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrmgate/internal/domain/auth"
)

const uniqueViolation = "23505"

var accountColumns = []string{
	"id", "email", "name", "role", "permissions", "COALESCE(employee_id, '')",
	"COALESCE(avatar, '')", "created_at", "password_hash", "mfa_enabled", "mfa_secret_enc",
}

// Store is the PostgreSQL Repository.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (Account, error) {
	return s.findOne(ctx, sq.Eq{"email": NormalizeEmail(email)})
}

func (s *Store) FindByID(ctx context.Context, id string) (Account, error) {
	return s.findOne(ctx, sq.Eq{"id": id})
}

func (s *Store) findOne(ctx context.Context, where sq.Eq) (Account, error) {
	query, args, err := sq.Select(accountColumns...).From("users").Where(where).
		PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return Account{}, err
	}
	acct, err := scanAccount(s.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, auth.ErrNotFound
	}
	return acct, err
}

func (s *Store) Insert(ctx context.Context, account Account) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, email, name, role, permissions, employee_id, avatar, created_at, password_hash, mfa_enabled, mfa_secret_enc)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)
  `, account.ID, account.Email, account.Name, string(account.Role), account.Permissions.Strings(),
		account.EmployeeID, account.Avatar, account.CreatedAt, account.PasswordHash, account.MFAEnabled, account.MFASecretEnc)
	return mapWriteError(err)
}

func (s *Store) Update(ctx context.Context, account Account) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET email = $2, name = $3, employee_id = NULLIF($4, ''), avatar = NULLIF($5, ''),
        password_hash = $6, mfa_enabled = $7, mfa_secret_enc = $8
    WHERE id = $1
  `, account.ID, account.Email, account.Name, account.EmployeeID, account.Avatar,
		account.PasswordHash, account.MFAEnabled, account.MFASecretEnc)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]Account, error) {
	query, args, err := sq.Select(accountColumns...).From("users").
		OrderBy("created_at", "id").PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct  Account
		role  string
		perms []string
	)
	if err := row.Scan(&acct.ID, &acct.Email, &acct.Name, &role, &perms, &acct.EmployeeID,
		&acct.Avatar, &acct.CreatedAt, &acct.PasswordHash, &acct.MFAEnabled, &acct.MFASecretEnc); err != nil {
		return Account{}, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return Account{}, fmt.Errorf("user %s: %w", acct.ID, err)
	}
	acct.Role = parsed
	acct.Permissions = auth.PermissionSetFromStrings(perms)
	return acct, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return auth.ErrAlreadyExists
	}
	return err
}
