package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no appointment matches the lookup predicate.
	ErrNotFound = errors.New("appointment not found")
	// ErrDuplicateSlot is returned when an insert loses the (date, time) race.
	ErrDuplicateSlot = errors.New("slot already booked")
)

// IsConflict reports whether err is a (date, time) uniqueness violation,
// either the wrapped sentinel or a raw unique_violation from Postgres.
func IsConflict(err error) bool {
	if errors.Is(err, ErrDuplicateSlot) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
