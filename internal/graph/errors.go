package graph

import (
	"fmt"
)

// GraphErrorCode represents specific error types that can occur while
// building or running a graph.
type GraphErrorCode string

const (
	// GraphErrorConfigInvalid indicates a structural problem detected at
	// build time or on first routing: unregistered stage references,
	// missing entry stage, an unconditional cycle, or a branch reaching a
	// terminal before its join.
	GraphErrorConfigInvalid GraphErrorCode = "config_invalid"

	// GraphErrorUnknownLabel indicates a router returned a label that is
	// not declared on its conditional edge. Fatal, never retried.
	GraphErrorUnknownLabel GraphErrorCode = "unknown_label"

	// GraphErrorHandlerFailed indicates a stage handler returned an error.
	// The run aborts; the handler's error is preserved as the cause.
	GraphErrorHandlerFailed GraphErrorCode = "handler_failed"

	// GraphErrorRunCancelled indicates the run's context was cancelled
	// between stage invocations.
	GraphErrorRunCancelled GraphErrorCode = "run_cancelled"
)

// GraphError represents an error raised while building or running a graph.
type GraphError struct {
	Code    GraphErrorCode `json:"code"`
	Message string         `json:"message"`
	Stage   string         `json:"stage,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface for GraphError.
func (e *GraphError) Error() string {
	if e.Stage != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s [stage: %s]: %s (caused by: %v)", e.Code, e.Stage, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s [stage: %s]: %s", e.Code, e.Stage, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface for GraphError.
func (e *GraphError) Unwrap() error {
	return e.Cause
}
