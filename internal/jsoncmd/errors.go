package jsoncmd

import "errors"

// Command errors.
var (
	// ErrNoKey is returned when the key holds no value.
	ErrNoKey = errors.New("key does not exist")

	// ErrNewRoot is returned when a new document is created at a path
	// other than the root.
	ErrNewRoot = errors.New("new documents must be created at the root")

	// ErrWrongType is returned when a legacy path selects a value of the
	// wrong JSON type for the command.
	ErrWrongType = errors.New("wrong JSON type for operation")

	// ErrNotNumber is returned when an increment is not a JSON number.
	ErrNotNumber = errors.New("increment is not a number")

	// ErrNotString is returned when appended text is not a JSON string.
	ErrNotString = errors.New("argument is not a JSON string")

	// ErrOverflow is returned when an integer result does not fit in 64 bits.
	ErrOverflow = errors.New("integer overflow")
)
