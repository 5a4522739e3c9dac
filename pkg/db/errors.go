package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	pgxconn "github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgCodeUniqueViolation = "23505"
	pgCodeUndefinedTable  = "42P01"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation. When constraintName is provided, the violated constraint
// must match it.
func IsUniqueViolation(err error, constraintName string) bool {
	code, constraint := pgErrorFields(err)
	if code == pgCodeUniqueViolation {
		return constraintName == "" || constraint == constraintName
	}
	if err == nil {
		return false
	}
	// sqlite (tests) has no SQLSTATE surface
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsUndefinedTable reports whether the error means a relation is missing,
// which almost always means migrations have not been applied.
func IsUndefinedTable(err error) bool {
	code, _ := pgErrorFields(err)
	if code == pgCodeUndefinedTable {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist") && strings.Contains(msg, "relation") ||
		strings.Contains(msg, "no such table")
}

func pgErrorFields(err error) (code, constraint string) {
	if err == nil {
		return "", ""
	}
	var pgxErr *pgxconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName
	}
	var connErr *pgconn.PgError
	if errors.As(err, &connErr) {
		return connErr.Code, connErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}
