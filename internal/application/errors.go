package application

import (
	"errors"
	"fmt"
)

// ErrShareNotFound is returned whenever a bearer secret does not resolve to a
// calendar. The message is identical for a missing token and a failed
// verification so callers cannot tell the two apart.
var ErrShareNotFound = errors.New("Calendar share link not found")

// StorageError wraps a failure reported by a storage collaborator.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying storage error.
func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
