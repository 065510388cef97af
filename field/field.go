// Package field implements the procedurally animated color signal that
// fills the text mask.
//
// Two strategies satisfy the same Field contract: ParticleField, drifting
// blurred color blobs over a sliding linear gradient, and NoiseField, a
// domain-warped fractal noise mapped through the palette. A host picks one
// at construction and never needs to know which is running.
//
// Field space is measured in logical pixels of the padded mask box, origin
// top-left, y down. Render takes the logical-to-raster scale (the device
// pixel ratio).
package field

import (
	"errors"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/paint"
)

// ErrClosed is returned when rendering a closed field.
var ErrClosed = errors.New("field: closed")

// MinSpeed keeps the field from freezing as the speed option approaches 0.
const MinSpeed = 0.2

// Field is a time-evolving 2D color signal.
//
// Within one frame a host calls Step before Render or Sample so readers
// always see the advanced state. Implementations are not safe for
// concurrent use.
type Field interface {
	// Reset sizes the field to a logical box and installs a palette,
	// discarding all simulation state.
	Reset(width, height float64, palette paint.Palette)

	// Step advances the field to the frame's animation time.
	Step(f clock.Frame)

	// Render paints the current state into dst, which covers the logical
	// box at scale raster pixels per unit.
	Render(dst *paint.Pixmap, scale float64) error

	// Sample returns the color at a logical point for the current state.
	Sample(x, y float64) paint.RGBA

	// Close releases buffers. It is idempotent.
	Close() error
}

func effectiveSpeed(speed, fallback float64) float64 {
	if speed == 0 {
		speed = fallback
	}
	return max(speed, MinSpeed)
}
