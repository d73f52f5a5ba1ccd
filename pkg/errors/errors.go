// Package errors provides structured error types for blockstack.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, the CLI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Fatal engine conditions each have their own code:
//   - HEADLESS: a geometry or render API was used on a non-interactive workspace
//   - HAS_PARENT: a top-level move was requested for a block that has a parent
//   - INVALID_STYLE: an unknown visual style name was set on a block
//   - LAYOUT_FAILED: the layout engine returned an error during render
//
// Operations on a disposed block are not errors; they return immediately.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeHasParent, "block %s has a parent", id)
//	if errors.Is(err, errors.ErrCodeHasParent) {
//	    // detach first
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLayout, origErr, "render %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidStyle  Code = "INVALID_STYLE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidScene  Code = "INVALID_SCENE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Engine state errors
	ErrCodeHeadless               Code = "HEADLESS"
	ErrCodeHasParent              Code = "HAS_PARENT"
	ErrCodeLayout                 Code = "LAYOUT_FAILED"
	ErrCodeDragSurfaceBusy        Code = "DRAG_SURFACE_BUSY"
	ErrCodeIncompatibleConnection Code = "INCOMPATIBLE_CONNECTION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
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
