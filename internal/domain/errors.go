package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the repository and store layers. The
// service layer translates them into API-facing denial codes.
var (
	// ErrNotFound reports a missing row or key in both cache and
	// durable storage.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRegistered reports a duplicate guild credential.
	ErrAlreadyRegistered = errors.New("guild already registered")

	// ErrNotRegistered reports an operation that requires an existing
	// guild credential.
	ErrNotRegistered = errors.New("guild not registered")
)

// StorageError wraps a fault from a backing store. Cache faults are
// never wrapped in it; only durable-store failures are, so callers can
// distinguish "degraded" from "broken".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the failing operation name.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageFault reports whether err originated in a backing store.
func IsStorageFault(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
