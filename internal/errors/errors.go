package errors

import "fmt"

// ErrorCode represents a drop error code.
type ErrorCode string

const (
	ErrNotFound  ErrorCode = "NOT_FOUND" // missing input file or unknown drop id
	ErrConfig    ErrorCode = "CONFIG"    // no credential resolvable, unknown sender
	ErrTransport ErrorCode = "TRANSPORT" // non-2xx hub response
	ErrUpload    ErrorCode = "UPLOAD"    // CDN failure; never fatal
	ErrInternal  ErrorCode = "INTERNAL"
)

// DropError represents a structured error with code, status, and details.
type DropError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DropError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFound creates an error for a missing input file or drop.
func NewNotFound(identifier string) *DropError {
	return &DropError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConfig creates an error for unresolvable configuration, such as a
// missing API key or an unknown sender.
func NewConfig(msg string) *DropError {
	return &DropError{
		Code:    ErrConfig,
		Status:  400,
		Message: msg,
	}
}

// NewTransport creates an error for a non-success hub response. The
// response body is carried verbatim for diagnosis.
func NewTransport(status int, body string) *DropError {
	return &DropError{
		Code:    ErrTransport,
		Status:  status,
		Message: fmt.Sprintf("API error (%d): %s", status, body),
		Details: map[string]any{"status": status, "body": body},
	}
}

// NewUpload creates an error for a failed CDN upload. Callers catch this
// at its origin and proceed without a CDN URL.
func NewUpload(err error) *DropError {
	msg := "upload failed"
	if err != nil {
		msg = err.Error()
	}
	return &DropError{
		Code:    ErrUpload,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *DropError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DropError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a DropError with the given code.
func Is(err error, code ErrorCode) bool {
	if dErr, ok := err.(*DropError); ok {
		return dErr.Code == code
	}
	return false
}
