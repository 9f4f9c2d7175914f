// Package domain defines core types, interfaces, and errors for the
// query execution and tabular synchronization engine.
package domain

import "fmt"

// ConnectionError indicates a connection checkout or network failure.
// Surfaced immediately, never retried.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string { return e.Message }
func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// TransactionError indicates a write-back batch failed mid-transaction.
// The whole batch was rolled back; no partial writes are visible.
type TransactionError struct {
	Message string
	Err     error
}

func (e *TransactionError) Error() string { return e.Message }
func (e *TransactionError) Unwrap() error { return e.Err }

// ErrConnection creates a ConnectionError wrapping err.
func ErrConnection(err error, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrTransaction creates a TransactionError wrapping err.
func ErrTransaction(err error, format string, args ...interface{}) *TransactionError {
	return &TransactionError{Message: fmt.Sprintf(format, args...), Err: err}
}
