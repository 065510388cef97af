package paint

import "errors"

// Sentinel errors for the paint package.
var (
	// ErrInvalidColor is wrapped by ColorError for malformed hex input.
	ErrInvalidColor = errors.New("paint: invalid hex color")

	// ErrSizeMismatch is returned when buffers passed together differ in size.
	ErrSizeMismatch = errors.New("paint: buffer size mismatch")
)
