package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsUniqueViolation reports whether err is a unique violation. When
// constraintName is set it must also match the violated constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchesPGError(err, pgUniqueViolation, constraintName, "duplicate key value", "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint violation, such
// as stock dropping below zero.
func IsCheckViolation(err error, constraintName string) bool {
	return matchesPGError(err, pgCheckViolation, constraintName, "violates check constraint", "CHECK constraint failed")
}

func matchesPGError(err error, code, constraintName string, fallbacks ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == code && (constraintName == "" || pgxErr.ConstraintName == constraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code && (constraintName == "" || pqErr.Constraint == constraintName)
	}

	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	for _, f := range fallbacks {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
