package ingres

import (
	"errors"
	"strings"
)

// sqlStateError is an interface for errors that provide SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// errorCoder is an interface for database errors that provide error codes.
type errorCoder interface {
	Code() string
}

// SQLSTATE codes for constraint violations (Class 23).
const (
	stateUniqueViolation     = "23505"
	stateForeignKeyViolation = "23503"
	stateCheckViolation      = "23513"
)

// IsConstraintError returns true if the error resulted from a constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a uniqueness
// violation, e.g. a duplicate key on INSERT.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return hasState(err, stateUniqueViolation) || containsAny(err.Error(),
		"E_US1194",      // Duplicate key on INSERT detected.
		"duplicate key", // Vector
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a
// referential constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return hasState(err, stateForeignKeyViolation) || containsAny(err.Error(),
		"E_US1906", // Referential constraint violated.
	)
}

// IsCheckConstraintError reports if the error resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return hasState(err, stateCheckViolation) || containsAny(err.Error(),
		"check constraint",
	)
}

// hasState reports whether the error chain carries the SQLSTATE, either
// through a driver interface or in the ODBC message text, e.g. "{23505}".
func hasState(err error, state string) bool {
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == state {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == state {
		return true
	}
	return strings.Contains(err.Error(), "{"+state+"}")
}

// asError attempts to extract an error implementing interface T from the error chain.
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

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
