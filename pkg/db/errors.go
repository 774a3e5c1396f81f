package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a unique constraint
// violation, on postgres or the sqlite driver used in tests. When a
// constraint name is given it must also appear in the error.
func IsUniqueViolation(err error, constraintName ...string) bool {
	if err == nil {
		return false
	}

	matched := false
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		matched = pgErr.Code == pgUniqueViolation
	} else {
		msg := err.Error()
		matched = strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed")
	}
	if !matched {
		return false
	}
	if len(constraintName) > 0 && constraintName[0] != "" {
		return strings.Contains(err.Error(), constraintName[0])
	}
	return true
}
