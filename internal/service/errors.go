// Package service provides application-level services for managing
// users, projects, and tasks.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Expected errors carry a user-facing message via ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrForbidden indicates the authenticated user is not permitted to
	// perform the requested operation on the resource.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("operation not permitted")

	// ErrInvalidCredentials indicates a login attempt failed. An unknown
	// email and a wrong password both resolve to this error so the two
	// cases stay indistinguishable to the caller.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidSortField indicates a task listing requested an
	// unsupported sort_by value.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// ServiceError wraps an underlying error with the operation that failed
// and a message safe to show to API clients. The wrapped error keeps
// errors.Is checks against store and service sentinels working.
type ServiceError struct {
	Operation string // The operation that failed (e.g., "get_task")
	Message   string // User-facing message, safe to return in a response body
	Err       error  // Original error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError with the given operation,
// user-facing message, and wrapped error.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
