package attendance

import (
	"context"
	"errors"
	"time"

	"hrmgate/internal/domain/auth"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

var (
	ErrInvalidKind  = errors.New("kind must be checkIn or checkOut")
	ErrInvalidRange = errors.New("from must be on or before to")
	ErrInvalidClock = errors.New("time must be HH:MM or HH:MM:SS")
)

type Kind string

const (
	KindCheckIn  Kind = "checkIn"
	KindCheckOut Kind = "checkOut"
)

func (k Kind) Valid() bool {
	return k == KindCheckIn || k == KindCheckOut
}

type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	CheckIn   string    `json:"checkIn,omitempty"`
	CheckOut  string    `json:"checkOut,omitempty"`
	Status    string    `json:"status,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
	UserRole  auth.Role `json:"userRole,omitempty"`
}

// Repository is the attendance store. Mark inserts the (user, date) row or
// updates the given column of the existing one.
type Repository interface {
	ListRange(ctx context.Context, from, to time.Time) ([]Record, error)
	Mark(ctx context.Context, userID string, date time.Time, kind Kind, clock string) (Record, error)
}

// Directory resolves users referenced by attendance rows.
type Directory interface {
	Get(ctx context.Context, id string) (auth.User, error)
}
