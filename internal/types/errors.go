package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Draftflow errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Dataset error codes
const (
	DATA_NOT_FOUND    ErrorCode = "DATA_NOT_FOUND"
	DATA_PARSE_FAILED ErrorCode = "DATA_PARSE_FAILED"
	DATA_EMPTY        ErrorCode = "DATA_EMPTY"
	DATA_WRITE_FAILED ErrorCode = "DATA_WRITE_FAILED"
)

// LLM error codes
const (
	LLM_AUTH_FAILED       ErrorCode = "LLM_AUTH_FAILED"
	LLM_PROVIDER_UNKNOWN  ErrorCode = "LLM_PROVIDER_UNKNOWN"
	LLM_COMPLETION_FAILED ErrorCode = "LLM_COMPLETION_FAILED"
)

// Run error codes
const (
	RUN_STAGE_FAILED  ErrorCode = "RUN_STAGE_FAILED"
	RUN_CANCELLED     ErrorCode = "RUN_CANCELLED"
	RUN_RECORD_FAILED ErrorCode = "RUN_RECORD_FAILED"
)

// DraftflowError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for error
// handling logic.
type DraftflowError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *DraftflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *DraftflowError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a DraftflowError with the same Code.
func (e *DraftflowError) Is(target error) bool {
	var dfErr *DraftflowError
	if errors.As(target, &dfErr) {
		return e.Code == dfErr.Code
	}
	return false
}

// NewError creates a new non-retryable DraftflowError with the given code and message.
func NewError(code ErrorCode, message string) *DraftflowError {
	return &DraftflowError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable DraftflowError with the given code
// and message. Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *DraftflowError {
	return &DraftflowError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable DraftflowError that wraps an existing
// error. The wrapped error is accessible via Unwrap() for chain inspection.
func WrapError(code ErrorCode, message string, cause error) *DraftflowError {
	return &DraftflowError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a
// DraftflowError marked retryable.
func IsRetryable(err error) bool {
	var dfErr *DraftflowError
	if errors.As(err, &dfErr) {
		return dfErr.Retryable
	}
	return false
}
