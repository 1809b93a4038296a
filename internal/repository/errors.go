package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when an insert loses a uniqueness race. Services
// treat it as "someone else got there first" and re-read.
var ErrDuplicate = errors.New("duplicate row")

// ErrInUse is returned when a delete is blocked by rows that still reference
// the target.
var ErrInUse = errors.New("row still referenced")

// Postgres error codes for constraint breaches.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
