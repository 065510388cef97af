package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/paint"
)

// ErrNoFrame is returned when the effect produced no frame, usually
// because it degraded to plain text.
var ErrNoFrame = errors.New("host: effect produced no frame")

// RenderFrames mounts eff if needed and dispatches q n times, step apart,
// starting at timestamp zero. Each frame is flattened over bg.
//
// The first frame is at animation time zero. A step longer than
// clock.MaxDelta is clamped by the clock.
func RenderFrames(eff *glowtext.AnimatedTextField, q *clock.FrameQueue, n int, step time.Duration, bg paint.RGBA) ([]*paint.Pixmap, error) {
	if err := ensureMounted(eff); err != nil {
		return nil, err
	}
	out := make([]*paint.Pixmap, 0, n)
	for i := range n {
		q.Dispatch(time.Duration(i) * step)
		fr := eff.Frame()
		if fr == nil {
			return out, fmt.Errorf("frame %d of %q: %w", i, eff.PlainText(), ErrNoFrame)
		}
		out = append(out, fr.Flatten(bg))
	}
	return out, nil
}

// RenderAt mounts a fresh eff and advances it from zero to animation
// time at, in steps no longer than clock.MaxDelta. It returns the last
// frame flattened over bg.
func RenderAt(eff *glowtext.AnimatedTextField, q *clock.FrameQueue, at time.Duration, bg paint.RGBA) (*paint.Pixmap, error) {
	if err := ensureMounted(eff); err != nil {
		return nil, err
	}
	at = max(at, 0)
	steps := int((at + clock.MaxDelta - 1) / clock.MaxDelta)

	q.Dispatch(0)
	for i := 1; i <= steps; i++ {
		q.Dispatch(at * time.Duration(i) / time.Duration(steps))
	}
	fr := eff.Frame()
	if fr == nil {
		return nil, fmt.Errorf("%q at %v: %w", eff.PlainText(), at, ErrNoFrame)
	}
	return fr.Flatten(bg), nil
}

func ensureMounted(eff *glowtext.AnimatedTextField) error {
	if eff.Mounted() {
		return nil
	}
	if err := eff.Mount(); err != nil {
		return fmt.Errorf("mount %q: %w", eff.PlainText(), err)
	}
	return nil
}
