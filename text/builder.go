package text

import (
	"math"

	"github.com/splashos/glowtext/paint"
)

// DimensionTolerance is the largest change in measured width or height,
// in logical units, that does not trigger a mask rebuild.
const DimensionTolerance = 0.5

// Dimensions is the debounce key of a mask: the measured box and the font
// descriptor it was measured with.
type Dimensions struct {
	Width  float64
	Height float64
	Font   string
}

// Equal reports whether d and other differ by less than DimensionTolerance
// on both axes and name the same font.
func (d Dimensions) Equal(other Dimensions) bool {
	return math.Abs(d.Width-other.Width) < DimensionTolerance &&
		math.Abs(d.Height-other.Height) < DimensionTolerance &&
		d.Font == other.Font
}

// IsZero reports whether nothing has been measured yet.
func (d Dimensions) IsZero() bool {
	return d == Dimensions{}
}

// Builder produces text masks and keeps the last one while the inputs
// stay within tolerance.
//
// Builder is not safe for concurrent use.
type Builder struct {
	reg *Registry

	text    string
	blur    float64
	dpr     float64
	dims    Dimensions
	metrics Metrics
	mask    *paint.Mask
}

// NewBuilder creates a builder backed by reg. A nil reg uses a fresh
// registry with the bundled fonts.
func NewBuilder(reg *Registry) *Builder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Builder{reg: reg}
}

// Build measures s and returns its mask. When the text, blur and dpr are
// unchanged and the new measurement is Equal to the cached Dimensions, the
// cached mask is returned with rebuilt == false.
func (b *Builder) Build(s string, st Style, blur, dpr float64) (mask *paint.Mask, rebuilt bool, err error) {
	if dpr <= 0 {
		dpr = 1
	}
	rn, err := b.reg.shape(s, st)
	if err != nil {
		return nil, false, err
	}
	m := rn.metrics()
	dims := m.Dimensions()

	if b.mask != nil && s == b.text && blur == b.blur && dpr == b.dpr && dims.Equal(b.dims) {
		return b.mask, false, nil
	}

	mask, err = rn.rasterize(blur, dpr)
	if err != nil {
		return nil, false, err
	}
	b.text, b.blur, b.dpr = s, blur, dpr
	b.dims, b.metrics, b.mask = dims, m, mask
	return mask, true, nil
}

// Mask returns the last built mask, or nil.
func (b *Builder) Mask() *paint.Mask {
	return b.mask
}

// Dimensions returns the cache key of the last built mask.
func (b *Builder) Dimensions() Dimensions {
	return b.dims
}

// Metrics returns the measurement of the last built mask.
func (b *Builder) Metrics() Metrics {
	return b.metrics
}

// Registry returns the font registry the builder measures with.
func (b *Builder) Registry() *Registry {
	return b.reg
}

// Reset drops the cached mask so the next Build always rasterizes.
func (b *Builder) Reset() {
	*b = Builder{reg: b.reg}
}
