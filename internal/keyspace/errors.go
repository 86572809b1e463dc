package keyspace

import (
	"errors"
	"fmt"
)

// Keyspace errors.
var (
	// ErrWrongType is returned when a key holds a value of another type.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrReadOnly is returned when writing through a key opened for reading.
	ErrReadOnly = errors.New("key is open read-only")

	// ErrKeyClosed is returned when using a key after Close.
	ErrKeyClosed = errors.New("key is closed")

	// ErrTypeExists is returned when registering a value type name twice.
	ErrTypeExists = errors.New("value type already registered")

	// ErrInvalidTypeName is returned for empty or oversized type names.
	ErrInvalidTypeName = errors.New("invalid value type name")

	// ErrInvalidKeyName is returned for empty key names.
	ErrInvalidKeyName = errors.New("invalid key name")

	// ErrNilValue is returned when storing a nil value.
	ErrNilValue = errors.New("value cannot be nil")
)

// KeyError records the key and operation that failed.
type KeyError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *KeyError) Unwrap() error {
	return e.Err
}
