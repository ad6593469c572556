package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors surfaced by store implementations.
var (
	// ErrStoreUnavailable indicates the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError wraps a store failure with the operation and key involved,
// so callers can log actionable context without parsing messages.
type StoreError struct {
	// Operation is the store operation that failed.
	Operation string

	// Key identifies the record involved, when applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store error: operation=%s, err=%v", e.Operation, e.Err)
	}
	return fmt.Sprintf("store error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a StoreError with the given details.
func NewStoreError(operation, key string, err error) *StoreError {
	return &StoreError{Operation: operation, Key: key, Err: err}
}
