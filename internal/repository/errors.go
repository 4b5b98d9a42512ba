package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const (
	pgErrUniqueViolation           = "23505"
	pgErrInvalidTextRepresentation = "22P02"
)

// ErrConflict is returned when an insert or update hits a unique constraint.
var ErrConflict = errors.New("unique constraint violated")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgErrUniqueViolation
}

// isNoRows reports whether err means the addressed row does not exist. An
// identifier that is not a valid uuid addresses no row either.
func isNoRows(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgErrInvalidTextRepresentation
}
