// Package errors defines the application error taxonomy shared by all layers.
//
// Every user-visible failure is an *AppError carrying a stable machine code
// in addition to its category, so callers can react to specific conditions
// (e.g. a missing start node vs a missing end node) without parsing message
// text. Raw storage-engine errors are never surfaced directly; they are
// wrapped as TRANSIENT or INTERNAL errors at the repository boundary.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeTimeout    ErrorType = "TIMEOUT"
	ErrorTypeTransient  ErrorType = "TRANSIENT"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// Stable machine codes for programmatic error handling.
const (
	CodeInvalidDepth      = "invalid_depth"
	CodeInvalidDirection  = "invalid_direction"
	CodeInvalidFilter     = "invalid_filter"
	CodeInvalidWeights    = "invalid_weights"
	CodeMissingParameter  = "missing_parameter"
	CodeNodeNotFound      = "node_not_found"
	CodeEdgeNotFound      = "edge_not_found"
	CodeStartNodeNotFound = "start_node_not_found"
	CodeEndNodeNotFound   = "end_node_not_found"
	CodePathTimeout       = "path_search_timeout"
	CodeUnknownSupersedes = "unknown_superseded_edge"
	CodeStorageFailure    = "storage_failure"
	CodeInternal          = "internal"
)

// AppError is the custom error type for the application
type AppError struct {
	Type      ErrorType
	Code      string
	Message   string
	Operation string
	Err       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewValidation creates a validation error with a stable code
func NewValidation(code, message string) error {
	return &AppError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewNotFound creates a not found error with a stable code
func NewNotFound(code, message string) error {
	return &AppError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewTimeout creates a timeout error with a stable code
func NewTimeout(code, message string) error {
	return &AppError{Type: ErrorTypeTimeout, Code: code, Message: message}
}

// NewTransient creates a transient storage error wrapping the cause
func NewTransient(message string, err error) error {
	return &AppError{Type: ErrorTypeTransient, Code: CodeStorageFailure, Message: message, Err: err}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Code: CodeInternal, Message: message, Err: err}
}

// WithOperation annotates an AppError with the operation that failed.
// Non-AppError values pass through unchanged.
func WithOperation(err error, operation string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		clone := *appErr
		clone.Operation = operation
		return &clone
	}
	return err
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type and code
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:      appErr.Type,
			Code:      appErr.Code,
			Message:   fmt.Sprintf("%s: %s", message, appErr.Message),
			Operation: appErr.Operation,
			Err:       appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{Type: ErrorTypeInternal, Code: CodeInternal, Message: message, Err: err}
}

// Type checking functions

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsTransient checks if an error is a transient storage error
func IsTransient(err error) bool {
	return isType(err, ErrorTypeTransient)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// CodeOf returns the machine code of an AppError, or "" for other errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
