package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// IsConstraintError reports whether err resulted from a database constraint
// violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// sqlStateError is implemented by drivers reporting SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// constraint violation.
func IsUniqueConstraintError(err error) bool {
	return classify(err, []string{pgUniqueViolation}, []uint16{mysqlDuplicateEntry},
		"violates unique constraint", // Postgres
		"UNIQUE constraint failed",   // SQLite
		"Violation of UNIQUE KEY",    // SQL Server
		"Cannot insert duplicate key",
	)
}

// IsForeignKeyConstraintError reports whether err resulted from a
// foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return classify(err, []string{pgForeignKeyViolation}, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"violates foreign key constraint", // Postgres
		"FOREIGN KEY constraint failed",   // SQLite
		"conflicted with the FOREIGN KEY", // SQL Server
	)
}

// IsCheckConstraintError reports whether err resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	return classify(err, []string{pgCheckViolation}, []uint16{mysqlCheckConstraintViolate},
		"violates check constraint", // Postgres
		"CHECK constraint failed",   // SQLite
		"conflicted with the CHECK", // SQL Server
	)
}

// classify matches err against PostgreSQL codes, MySQL error numbers and,
// for drivers without typed errors, message fragments.
func classify(err error, codes []string, numbers []uint16, fragments ...string) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return slices.Contains(codes, string(pqErr.Code))
	}
	if e, ok := asError[sqlStateError](err); ok && slices.Contains(codes, e.SQLState()) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return slices.Contains(numbers, myErr.Number)
	}
	msg := err.Error()
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// asError extracts an error implementing interface T from the chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
