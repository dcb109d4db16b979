package lib

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database errors
var (
	ErrNotFound            = errors.New("not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConstraintError is a write rejected by a storage constraint. It matches its Kind
// (ErrUniqueViolation or ErrForeignKeyViolation) with errors.Is.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing row of the given entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// MissingReference reports a write that points at a row which does not exist.
func MissingReference(column string, id any) error {
	return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: fmt.Sprintf("%s=%v", column, id)}
}

// MapDBError translates driver errors into the package sentinels. Postgres errors are
// recognised through both bun's pgdriver and pgx; SQLite errors by message.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	var constraintErr *ConstraintError
	if errors.As(err, &constraintErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if mapped := mapSQLState(pgErr.Field('C'), pgErr.Field('n'), err); mapped != nil {
			return mapped
		}
		return err
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if mapped := mapSQLState(pgxErr.Code, pgxErr.ConstraintName, err); mapped != nil {
			return mapped
		}
		return err
	}

	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed"); i >= 0 {
		return &ConstraintError{Kind: ErrUniqueViolation, Constraint: sqliteConstraint(msg[i:]), Err: err}
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return &ConstraintError{Kind: ErrForeignKeyViolation, Err: err}
	}

	return err
}

func mapSQLState(code, constraint string, err error) error {
	switch code {
	case "23505": // unique_violation
		return &ConstraintError{Kind: ErrUniqueViolation, Constraint: constraint, Err: err}
	case "23503": // foreign_key_violation
		return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: constraint, Err: err}
	case "P0002": // no_data_found
		return ErrNotFound
	}
	return nil
}

// sqliteConstraint extracts "customers.email" from "UNIQUE constraint failed: customers.email (2067)".
func sqliteConstraint(msg string) string {
	_, rest, ok := strings.Cut(msg, ": ")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, " ")
	return strings.TrimSpace(rest)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClientError reports whether err was caused by the caller's input rather than the store.
func IsClientError(err error) bool {
	return IsValidationError(err) || IsNotFound(err) || IsUniqueViolation(err) ||
		IsForeignKeyViolation(err) || errors.Is(err, ErrInvalidCredentials)
}
