package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrVersionConflict is returned when an optimistic write lost a race.
	ErrVersionConflict = errors.New("ticket modified concurrently")
	// ErrDuplicateTicketNumber is returned when a generated ticket number is taken.
	ErrDuplicateTicketNumber = errors.New("ticket number already exists")
)

const (
	uniqueViolation           = "23505"
	ticketNumberConstraintKey = "tickets_ticket_number_key"
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
