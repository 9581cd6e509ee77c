package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// postgres error codes, https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	PgCodeUniqueViolation     = "23505"
	PgCodeForeignKeyViolation = "23503"
)

// PgErrorCode returns the SQLSTATE of a postgres error, or "" for other errors.
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolationError(err error) bool {
	return PgErrorCode(err) == PgCodeUniqueViolation
}

// IsForeignKeyViolationError is how repos detect a reference to a missing row,
// e.g. a weekly record for an unknown patient.
func IsForeignKeyViolationError(err error) bool {
	return PgErrorCode(err) == PgCodeForeignKeyViolation
}
