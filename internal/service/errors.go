package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/brainace/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrNotFound indicates that a collection, section, sub-section or item
	// does not exist. It is recoverable.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrNilTree is returned when an operation is given no tree to work on.
	ErrNilTree = errors.New("tree cannot be nil")
)

// ServiceError wraps errors from the services with the failing operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "add_item", "delete_section")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
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

// NewServiceError creates a new ServiceError. Store not-found errors are
// translated to ErrNotFound, keeping the entity-specific error in the chain.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if store.IsNotFoundError(err) && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func notFound(kind string, id fmt.Stringer) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}
