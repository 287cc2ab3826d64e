// Package errors provides structured error types for nodewire.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP session
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Graph errors describe why a mutation was refused:
//   - DANGLING_ENDPOINT: a referenced node or port does not exist
//   - INCOMPATIBLE_SOCKETS: the connection validator rejected the edge
//   - UNKNOWN_CONTROL: the control name is not declared on the node
//
// Document and collaborator errors:
//   - MALFORMED_DOCUMENT: a persisted document is structurally invalid
//   - EXTERNAL_IO_FAILURE: opening or saving a document failed
//   - LAYOUT_UNAVAILABLE: the layout collaborator failed
//
// None of these is fatal. Each is local to the operation that returned it.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownControl, "node %d has no control %q", id, name)
//	if errors.Is(err, errors.ErrCodeUnknownControl) {
//	    // Handle the missing control
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExternalIO, origErr, "save %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph integrity errors
	ErrCodeDanglingEndpoint    Code = "DANGLING_ENDPOINT"
	ErrCodeIncompatibleSockets Code = "INCOMPATIBLE_SOCKETS"
	ErrCodeUnknownControl      Code = "UNKNOWN_CONTROL"

	// Document and collaborator errors
	ErrCodeMalformedDocument Code = "MALFORMED_DOCUMENT"
	ErrCodeExternalIO        Code = "EXTERNAL_IO_FAILURE"
	ErrCodeLayoutUnavailable Code = "LAYOUT_UNAVAILABLE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Control flow
	ErrCodeCanceled Code = "CANCELED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code,
// so a LAYOUT_UNAVAILABLE wrapping an EXTERNAL_IO_FAILURE matches both.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// AsOutcome is a convenience for callers that report a refused mutation:
// it returns err unchanged when it already carries a code, and otherwise
// wraps it with fallback.
func AsOutcome(err error, fallback Code) error {
	if err == nil {
		return nil
	}
	if GetCode(err) != "" {
		return err
	}
	return Wrap(fallback, err, "%s", err.Error())
}
