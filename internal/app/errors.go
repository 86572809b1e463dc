package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNotRunning indicates the application has been shut down.
	ErrNotRunning = errors.New("application not running")

	// ErrInvalidSeed indicates a seed file that is not a mapping of key
	// names to documents.
	ErrInvalidSeed = errors.New("invalid seed file")
)

// InitError reports which component failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
