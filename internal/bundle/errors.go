package bundle

// errors.go defines the structured error for bundle validation failures
//
// a bundle that fails validation must never be signed or handed to storage -
// the consuming wallet app installs bundles silently or not at all, so the
// only place a useful error can surface is here, before packaging.

import "fmt"

// ValidationError indicates a pass bundle that would be rejected by the
// consuming wallet app (missing required field or file, manifest mismatch).
type ValidationError struct {

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *ValidationError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *ValidationError) Unwrap() error { return e.wrapped }

// NewValidationError creates a bundle validation error.
func NewValidationError(msg string) error {
	return &ValidationError{message: msg}
}

// WrapValidationError wraps an existing error as a bundle validation error.
func WrapValidationError(err error, msg string) error {
	return &ValidationError{message: msg, wrapped: err}
}
