// Package docstore defines the boundary to a revision-versioned document store.
package docstore

import (
	"errors"
	"fmt"
)

// StoreError is a structured error returned by document-store clients.
type StoreError struct {
	Code    string // Error code (e.g., "CS-DOC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support: two StoreErrors match on code.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewStoreError creates a new StoreError with the given code and message.
func NewStoreError(code, message string) *StoreError {
	return &StoreError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *StoreError) WithDetails(details string) *StoreError {
	return &StoreError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *StoreError) WithCause(cause error) *StoreError {
	return &StoreError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// ErrorCode extracts the code from an error if it is a StoreError.
func ErrorCode(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = NewStoreError("CS-DOC-4040", "document not found")

	// ErrConflict indicates a write carried a stale revision token.
	ErrConflict = NewStoreError("CS-DOC-4090", "document revision conflict")

	// ErrIndexMissing indicates the queried index has not been created yet.
	ErrIndexMissing = NewStoreError("CS-IDX-4040", "index not found")

	// ErrUnavailable indicates the store could not be reached.
	ErrUnavailable = NewStoreError("CS-STOR-5030", "store unavailable")

	// ErrBadDocument indicates a document that could not be encoded or decoded.
	ErrBadDocument = NewStoreError("CS-DOC-4000", "malformed document")
)

// IsNotFound reports whether err is a not-found store error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a revision-conflict store error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
