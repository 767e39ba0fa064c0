package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a pipeline failure and drives retry policy.
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindConnection   ErrorKind = "connection"
	KindSyntax       ErrorKind = "syntax"
	KindAuth         ErrorKind = "auth"
	KindUnauthorized ErrorKind = "unauthorized"
	KindUnknown      ErrorKind = "unknown"
)

// Retryable reports whether a later attempt of the same statement may succeed.
// Only transient failures qualify; retrying a malformed statement cannot help.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindConnection
}

// ExecutionError is a classified failure. Classification happens once, nearest
// to the failure source; upstream layers pass it through unchanged.
type ExecutionError struct {
	Kind      ErrorKind
	Message   string
	Timestamp time.Time
	Attempts  int   // total attempts made, set by the retry layer
	Err       error // underlying cause
}

func (e *ExecutionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s error after %d attempts: %s", e.Kind, e.Attempts, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError wraps err with a classification.
func NewExecutionError(kind ErrorKind, err error) *ExecutionError {
	return &ExecutionError{
		Kind:      kind,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Attempts:  1,
		Err:       err,
	}
}

// KindOf extracts the classification from err, or KindUnknown if err carries none.
func KindOf(err error) ErrorKind {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return KindUnknown
}
