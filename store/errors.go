package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("duplicate value")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports malformed input. It is always returned before
// anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateError reports a violated uniqueness constraint on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(id)}
}

// PersistenceError reports a failed unit of work. The operation was rolled
// back entirely.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func isDomainError(err error) bool {
	var (
		ve *ValidationError
		de *DuplicateError
		ne *NotFoundError
		pe *PersistenceError
	)
	return errors.As(err, &ve) || errors.As(err, &de) ||
		errors.As(err, &ne) || errors.As(err, &pe)
}

// uniqueViolation returns the constraint description of a unique violation
// reported by any of the supported drivers.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return sqErr.Error(), true
	}

	return "", false
}

// duplicate turns a unique violation into a *DuplicateError naming the first
// of fields mentioned by the constraint. Other errors pass through.
func duplicate(err error, fields ...string) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	for _, f := range fields {
		if strings.Contains(constraint, f) {
			return &DuplicateError{Field: f}
		}
	}
	if len(fields) > 0 {
		return &DuplicateError{Field: fields[0]}
	}
	return &DuplicateError{Field: constraint}
}
