package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateKey is returned when an insert violates a unique constraint.
// Callers use it to detect that another request already claimed the key.
var ErrDuplicateKey = errors.New("duplicate key")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
