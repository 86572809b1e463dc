package host

import "errors"

// Host errors.
var (
	// ErrAPIExists is returned when a shared API name is already exported.
	ErrAPIExists = errors.New("shared API already exported")

	// ErrAPINotFound is returned when no shared API has the requested name.
	ErrAPINotFound = errors.New("shared API not found")

	// ErrInvalidAPI is returned for an empty name or nil API value.
	ErrInvalidAPI = errors.New("invalid shared API")

	// ErrFrameClosed is returned when a Context is used after its frame ended.
	ErrFrameClosed = errors.New("command frame has ended")

	// ErrKeyHeld is returned when a frame opens a key it already holds.
	ErrKeyHeld = errors.New("key already held by this frame")

	// ErrPanic wraps a panic recovered from a command function.
	ErrPanic = errors.New("command panicked")
)
