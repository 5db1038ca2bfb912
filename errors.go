package actian

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound marks an absent catalog object. Reflection methods never
	// return it to callers; absence is reported as an empty result.
	ErrNotFound = errors.New("actian: catalog object not found")

	// ErrNoCapabilities is returned when the capability query yields no rows.
	ErrNoCapabilities = errors.New("actian: server reported no capabilities")

	// ErrCapabilitiesNotLoaded is returned when a decision depends on the
	// capability snapshot before it was loaded.
	ErrCapabilitiesNotLoaded = errors.New("actian: capabilities not loaded")

	// ErrCapabilitiesLoading is returned by a second concurrent initialization.
	ErrCapabilitiesLoading = errors.New("actian: capabilities are being loaded")
)

// UnmappedTypeError is returned when a type has no entry in the type table.
// It is a configuration error and must never be defaulted silently.
type UnmappedTypeError struct {
	Native string // Native type name, if reflecting.
	Kind   string // Generic kind, if formatting.
}

// Error returns the error string.
func (e *UnmappedTypeError) Error() string {
	if e.Native != "" {
		return fmt.Sprintf("actian: unmapped native type %q", e.Native)
	}
	return fmt.Sprintf("actian: unmapped generic type %q", e.Kind)
}

// NewUnmappedNativeError returns a new UnmappedTypeError for a native type name.
func NewUnmappedNativeError(native string) *UnmappedTypeError {
	return &UnmappedTypeError{Native: native}
}

// NewUnmappedKindError returns a new UnmappedTypeError for a generic kind.
func NewUnmappedKindError(kind string) *UnmappedTypeError {
	return &UnmappedTypeError{Kind: kind}
}

// IsUnmappedType returns true if the error is an UnmappedTypeError.
func IsUnmappedType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnmappedTypeError
	return errors.As(err, &e)
}

// CapabilityError represents a decision that could not be made from the
// server capability snapshot.
type CapabilityError struct {
	Name  string // Capability name, e.g. DBMS_TYPE.
	Value string // Reported value, empty if missing.
	Err   error  // Underlying error.
}

// Error returns the error string.
func (e *CapabilityError) Error() string {
	switch {
	case e.Err != nil && e.Value != "":
		return fmt.Sprintf("actian: capability %s=%q: %v", e.Name, e.Value, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("actian: capability %s: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("actian: capability %s: unrecognized value %q", e.Name, e.Value)
	}
}

// Unwrap returns the underlying error.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewCapabilityError returns a new CapabilityError.
func NewCapabilityError(name, value string, err error) *CapabilityError {
	return &CapabilityError{Name: name, Value: value, Err: err}
}

// IsCapabilityError returns true if the error is a CapabilityError
// or one of the capability sentinels.
func IsCapabilityError(err error) bool {
	if err == nil {
		return false
	}
	var e *CapabilityError
	return errors.As(err, &e) ||
		errors.Is(err, ErrNoCapabilities) ||
		errors.Is(err, ErrCapabilitiesNotLoaded)
}

// PartialDDLError is returned when a multi-phase DDL operation fails after
// its first phase committed. The objects created by earlier phases exist.
type PartialDDLError struct {
	Table string // Table the plan was created for.
	Phase string // Phase that failed, e.g. "modify".
	Err   error  // Underlying error.
}

// Error returns the error string.
func (e *PartialDDLError) Error() string {
	return fmt.Sprintf("actian: table %s created, %s phase failed: %v", e.Table, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *PartialDDLError) Unwrap() error {
	return e.Err
}

// IsPartialDDL returns true if the error is a PartialDDLError.
func IsPartialDDL(err error) bool {
	if err == nil {
		return false
	}
	var e *PartialDDLError
	return errors.As(err, &e)
}

// ValidationError represents a schema element that the server would reject.
type ValidationError struct {
	Name string // Table, column or index name.
	Err  error  // Underlying validation error.
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("actian: invalid %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given element.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// QueryError wraps a catalog or statement error with the operation name.
type QueryError struct {
	Op  string // Operation, e.g. "columns" or "last_identity".
	Err error  // Underlying error.
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("actian: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(op string, err error) *QueryError {
	return &QueryError{Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "actian: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("actian: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
