package sqlkit

import (
	"errors"
	"fmt"

	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/expr"
	"github.com/syssam/sqlkit/schema"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("sqlkit: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns multiple results.
	ErrNotSingular = errors.New("sqlkit: entity not singular")

	// ErrNoExecutor is returned by terminal operations of a client that was
	// created without an executor.
	ErrNoExecutor = errors.New("sqlkit: client has no executor")

	// ErrInvalidKeyCount matches configuration errors raised when an
	// operation needs a different number of key columns than the type has.
	ErrInvalidKeyCount = schema.ErrInvalidKeyCount

	// ErrArgument matches argument errors.
	ErrArgument = sql.ErrArgument

	// ErrUnsupportedExpression matches predicate translation errors.
	ErrUnsupportedExpression = expr.ErrUnsupported
)

type (
	// ConfigurationError reports an entity mapping that cannot serve the
	// requested operation.
	ConfigurationError = schema.ConfigurationError

	// ArgumentError reports a blank column, nil value or out-of-range
	// argument passed to a builder.
	ArgumentError = sql.ArgumentError

	// UnsupportedExpressionError reports a predicate outside the supported
	// grammar.
	UnsupportedExpressionError = expr.UnsupportedExpressionError
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("sqlkit: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("sqlkit: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the key that was
// searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular
// result but receives multiple results.
type NotSingularError struct {
	label string
	count int // Number of results read (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("sqlkit: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("sqlkit: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError for the given entity type.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the
// result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return err != nil && errors.As(err, &e)
}

// IsInvalidKeyCount returns true if the error reports a wrong number of
// key columns.
func IsInvalidKeyCount(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidKeyCount)
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	return err != nil && errors.Is(err, ErrArgument)
}

// IsUnsupportedExpression returns true if the error is an
// UnsupportedExpressionError.
func IsUnsupportedExpression(err error) bool {
	return err != nil && errors.Is(err, ErrUnsupportedExpression)
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation.
func IsConstraintError(err error) bool {
	return sql.IsConstraintError(err)
}
