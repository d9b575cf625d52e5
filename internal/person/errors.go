package person

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an operation needs an existing person and none matches.
	ErrNotFound = errors.New("person not found")
	// ErrDuplicateID is returned when an insert would reuse an existing application id.
	ErrDuplicateID = errors.New("person id already exists")
	// ErrValidation is matched by every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a missing or malformed field on a write.
// Index is the position within a batch, or -1 for single-record writes.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation failed: record %d: %s %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps any failure reported by the underlying document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// FoldEqual compares food names the way the store's case-insensitive collation does.
func FoldEqual(a, b string) bool { return strings.EqualFold(a, b) }
