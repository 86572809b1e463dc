package extension

import "errors"

// Extension errors.
var (
	ErrMissingName       = errors.New("manifest: name is required")
	ErrInvalidName       = errors.New("manifest: name must be lowercase alphanumeric with hyphens")
	ErrInvalidVersion    = errors.New("manifest: version must be valid semver")
	ErrInvalidMain       = errors.New("manifest: main must be a .lua file")
	ErrInvalidCapability = errors.New("manifest: invalid capability")
	ErrCapabilityDenied  = errors.New("capability not allowed by host")
	ErrMissingAPI        = errors.New("required shared API not exported")
	ErrClosed            = errors.New("extension is closed")
)
