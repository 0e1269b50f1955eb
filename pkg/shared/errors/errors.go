package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that deliberately hide whether the
// target exists at all, e.g. job reads by a non-owner.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected request argument.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CommandError represents a CLI command failure carrying the process exit code.
type CommandError struct {
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err with the exit code the CLI should terminate with.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{ExitCode: code, Err: err}
}
