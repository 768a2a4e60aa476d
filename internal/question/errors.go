package question

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("question not found")

// ErrDuplicateID is returned when inserting a record whose id is already stored.
var ErrDuplicateID = errors.New("question id already exists")

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("question store closed")

// PersistenceError reports a failed durable read or write.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CorruptStoreError reports durable content that cannot be decoded.
// The store never substitutes an empty collection for corrupt data.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt question store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// ValidationError describes a rejected input record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
