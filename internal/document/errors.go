package document

import (
	"errors"
	"fmt"
)

// Document errors.
var (
	// ErrInvalidJSON is returned when text is not a single valid JSON value.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrMalformedPath is returned when a path expression cannot be parsed.
	ErrMalformedPath = errors.New("malformed path expression")

	// ErrNoMatch is returned when a path matches nothing.
	ErrNoMatch = errors.New("path does not exist")

	// ErrNotConcrete is returned when a mutation targets a wildcard path.
	ErrNotConcrete = errors.New("path is not concrete")
)

// PathError describes a malformed path expression.
type PathError struct {
	Path   string
	Offset int
	Reason string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("malformed path %q at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedPath.
func (e *PathError) Unwrap() error {
	return ErrMalformedPath
}
