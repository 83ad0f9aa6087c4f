package pass

// errors.go defines the structured error used for pass document validation failures

import "fmt"

// DocumentError indicates a pass document that the consuming wallet app would reject.
type DocumentError struct {

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *DocumentError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *DocumentError) Unwrap() error { return e.wrapped }

// NewDocumentError creates a pass document validation error.
func NewDocumentError(msg string) error {
	return &DocumentError{message: msg}
}

// WrapDocumentError wraps an existing error as a pass document validation error.
func WrapDocumentError(err error, msg string) error {
	return &DocumentError{message: msg, wrapped: err}
}
