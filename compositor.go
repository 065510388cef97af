package glowtext

import (
	"fmt"
	"math"

	"github.com/splashos/glowtext/paint"
)

// glowSpread is the canvas shadowBlur of the glow relative to the larger
// side of the mask.
const glowSpread = 0.08

// glowShadowAlpha is the alpha of the white shadow color.
const glowShadowAlpha = 0.9

// Compositor stencils a field pixmap with a text mask.
//
// The blurred mask used for the glow is cached and recomputed only when
// the mask pointer changes, so masks must not be modified after they are
// passed to Composite.
type Compositor struct {
	glow float64

	mask *paint.Mask
	halo *paint.Mask
}

// NewCompositor creates a compositor with glow opacity glow in [0, 1].
// Zero glow disables the halo.
func NewCompositor(glow float64) *Compositor {
	return &Compositor{glow: math.Min(math.Max(glow, 0), 1)}
}

// Glow returns the glow opacity.
func (c *Compositor) Glow() float64 {
	return c.glow
}

// Composite writes into dst the field color where the mask has coverage.
// Alpha is mask coverage times field alpha; uncovered pixels become fully
// transparent. dst, fieldPix and mask must have the same pixel size.
func (c *Compositor) Composite(dst, fieldPix *paint.Pixmap, mask *paint.Mask) error {
	if !dst.SameSize(fieldPix) || dst.Width() != mask.Width() || dst.Height() != mask.Height() {
		return fmt.Errorf("glowtext: composite %dx%d field onto %dx%d with %dx%d mask: %w",
			fieldPix.Width(), fieldPix.Height(), dst.Width(), dst.Height(),
			mask.Width(), mask.Height(), paint.ErrSizeMismatch)
	}

	var halo []uint8
	if c.glow > 0 {
		halo = c.haloFor(mask).Data()
	}

	out, src, cov := dst.Data(), fieldPix.Data(), mask.Data()
	for i, m := range cov {
		o := i * 4
		if m == 0 {
			out[o], out[o+1], out[o+2], out[o+3] = 0, 0, 0, 0
			continue
		}
		r, g, b := float64(src[o]), float64(src[o+1]), float64(src[o+2])
		if halo != nil && halo[i] > 0 {
			// source-atop: white over the color, alpha from the destination
			k := c.glow * glowShadowAlpha * float64(halo[i]) / 255
			r += (255 - r) * k
			g += (255 - g) * k
			b += (255 - b) * k
		}
		out[o] = uint8(math.Round(r))
		out[o+1] = uint8(math.Round(g))
		out[o+2] = uint8(math.Round(b))
		out[o+3] = uint8((uint32(m)*uint32(src[o+3]) + 127) / 255) //nolint:gosec // at most 255
	}
	return nil
}

func (c *Compositor) haloFor(mask *paint.Mask) *paint.Mask {
	if mask == c.mask && c.halo != nil {
		return c.halo
	}
	lw, lh := mask.LogicalSize()
	// canvas shadowBlur is twice the Gaussian sigma
	sigma := math.Max(lw, lh) * glowSpread / 2 * mask.Scale()
	c.mask, c.halo = mask, mask.Blurred(sigma)
	return c.halo
}

// Reset drops the cached halo.
func (c *Compositor) Reset() {
	c.mask, c.halo = nil, nil
}

// Composite stencils fieldPix with mask into dst using a one-off
// Compositor. Callers compositing every frame should keep a Compositor.
func Composite(dst, fieldPix *paint.Pixmap, mask *paint.Mask, glow float64) error {
	return NewCompositor(glow).Composite(dst, fieldPix, mask)
}
