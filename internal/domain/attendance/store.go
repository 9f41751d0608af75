package attendance

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrmgate/internal/domain/auth"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListRange(ctx context.Context, from, to time.Time) ([]Record, error) {
	query, args, err := sq.Select(
		"a.id", "a.user_id", "to_char(a.date, 'YYYY-MM-DD')",
		"COALESCE(to_char(a.check_in, 'HH24:MI:SS'), '')",
		"COALESCE(to_char(a.check_out, 'HH24:MI:SS'), '')",
		"a.status", "u.name", "u.email", "u.role",
	).
		From("attendance a").
		Join("users u ON u.id = a.user_id").
		Where(sq.GtOrEq{"a.date": from.Format(DateLayout)}).
		Where(sq.LtOrEq{"a.date": to.Format(DateLayout)}).
		OrderBy("a.date ASC", "u.name ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec  Record
			role string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status,
			&rec.UserName, &rec.UserEmail, &role); err != nil {
			return nil, err
		}
		rec.UserRole = auth.Role(role)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Mark(ctx context.Context, userID string, date time.Time, kind Kind, clock string) (Record, error) {
	column := "check_in"
	if kind == KindCheckOut {
		column = "check_out"
	}

	query, args, err := sq.Insert("attendance").
		Columns("user_id", "date", column).
		Values(userID, date.Format(DateLayout), clock).
		Suffix("ON CONFLICT (user_id, date) DO UPDATE SET " + column + " = EXCLUDED." + column +
			" RETURNING id, user_id, to_char(date, 'YYYY-MM-DD'), COALESCE(to_char(check_in, 'HH24:MI:SS'), ''), COALESCE(to_char(check_out, 'HH24:MI:SS'), ''), status").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return Record{}, err
	}

	var rec Record
	err = s.DB.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status)
	if err == pgx.ErrNoRows {
		return Record{}, auth.ErrNotFound
	}
	return rec, err
}
