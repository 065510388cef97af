package paint

import (
	"bytes"
	"image"
	"math"
)

// Mask represents an alpha mask for compositing operations.
// Values range from 0 (fully transparent) to 255 (fully opaque).
//
// A Mask covers a logical box of LogicalWidth by LogicalHeight units
// rasterized at Scale pixels per unit.
type Mask struct {
	width  int
	height int
	data   []uint8

	scale         float64
	logicalWidth  float64
	logicalHeight float64
}

// NewMask creates a new empty mask with the given pixel dimensions at scale 1.
// All values are initialized to 0 (fully transparent).
func NewMask(width, height int) *Mask {
	width, height = max(width, 1), max(height, 1)
	return &Mask{
		width:         width,
		height:        height,
		data:          make([]uint8, width*height),
		scale:         1,
		logicalWidth:  float64(width),
		logicalHeight: float64(height),
	}
}

// NewScaledMask creates an empty mask covering a logical box of lw by lh
// units at the given scale. The pixel size is ceil(l*scale) per axis.
func NewScaledMask(lw, lh, scale float64) *Mask {
	if scale <= 0 {
		scale = 1
	}
	lw, lh = math.Max(lw, 1), math.Max(lh, 1)
	w, h := RasterSize(lw, scale), RasterSize(lh, scale)
	return &Mask{
		width:         w,
		height:        h,
		data:          make([]uint8, w*h),
		scale:         scale,
		logicalWidth:  lw,
		logicalHeight: lh,
	}
}

// NewMaskFromAlpha wraps a copy of img's coverage as a mask at the given
// scale. The logical size is the pixel size divided by scale.
func NewMaskFromAlpha(img *image.Alpha, scale float64) *Mask {
	if scale <= 0 {
		scale = 1
	}
	b := img.Bounds()
	m := &Mask{
		width:         max(b.Dx(), 1),
		height:        max(b.Dy(), 1),
		scale:         scale,
		logicalWidth:  float64(b.Dx()) / scale,
		logicalHeight: float64(b.Dy()) / scale,
	}
	m.data = make([]uint8, m.width*m.height)
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(m.data[y*m.width:(y+1)*m.width], img.Pix[off:off+b.Dx()])
	}
	return m
}

// RasterSize returns the pixel count covering logical units at scale.
func RasterSize(logical, scale float64) int {
	// Sub-ULP noise from the multiply must not add a pixel.
	return max(int(math.Ceil(logical*scale-1e-9)), 1)
}

// Bounds returns the mask dimensions as an image.Rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Scale returns the pixels-per-logical-unit factor.
func (m *Mask) Scale() float64 { return m.scale }

// LogicalSize returns the logical box the mask covers.
func (m *Mask) LogicalSize() (float64, float64) { return m.logicalWidth, m.logicalHeight }

// At returns the mask value at (x, y).
// Returns 0 for coordinates outside the mask bounds.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set sets the mask value at (x, y).
// Coordinates outside the mask bounds are ignored.
func (m *Mask) Set(x, y int, value uint8) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = value
}

// Fill fills the entire mask with a value.
func (m *Mask) Fill(value uint8) {
	for i := range m.data {
		m.data[i] = value
	}
}

// Clone creates a copy of the mask.
func (m *Mask) Clone() *Mask {
	clone := *m
	clone.data = make([]uint8, len(m.data))
	copy(clone.data, m.data)
	return &clone
}

// Equal reports whether both masks have identical geometry and coverage.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil {
		return false
	}
	return m.width == other.width && m.height == other.height &&
		m.scale == other.scale && bytes.Equal(m.data, other.data)
}

// Coverage returns the number of non-zero pixels.
func (m *Mask) Coverage() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Blurred returns a Gaussian-blurred copy of the mask. The radius is in
// pixels.
func (m *Mask) Blurred(radius float64) *Mask {
	out := m.Clone()
	if radius <= 0 {
		return out
	}
	buf := make([]float32, len(m.data))
	for i, v := range m.data {
		buf[i] = float32(v)
	}
	gaussianBlur(buf, m.width, m.height, 1, radius)
	for i, v := range buf {
		out.data[i] = clampByte(v)
	}
	return out
}

// Data returns the underlying mask data slice.
// This is useful for advanced operations.
func (m *Mask) Data() []uint8 {
	return m.data
}
