package paint

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

// Pixmap represents a rectangular straight-alpha pixel buffer.
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewPixmap creates a new pixmap with the given dimensions.
// Non-positive dimensions are clamped to 1.
func NewPixmap(width, height int) *Pixmap {
	width, height = max(width, 1), max(height, 1)
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = to8(c.R)
	p.data[i+1] = to8(c.G)
	p.data[i+2] = to8(c.B)
	p.data[i+3] = to8(c.A)
}

// GetPixel returns the color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	r, g, b, a := to8(c.R), to8(c.G), to8(c.B), to8(c.A)
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// SameSize reports whether p and other have equal dimensions.
func (p *Pixmap) SameSize(other *Pixmap) bool {
	return other != nil && p.width == other.width && p.height == other.height
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	c := &Pixmap{width: p.width, height: p.height, data: make([]uint8, len(p.data))}
	copy(c.data, p.data)
	return c
}

// Premultiplied writes the pixels as premultiplied RGBA8 into dst, growing
// it when needed, and returns it. GPU-backed hosts upload this layout.
func (p *Pixmap) Premultiplied(dst []byte) []byte {
	if cap(dst) < len(p.data) {
		dst = make([]byte, len(p.data))
	}
	dst = dst[:len(p.data)]
	for i := 0; i < len(p.data); i += 4 {
		a := uint32(p.data[i+3])
		dst[i+0] = uint8((uint32(p.data[i+0])*a + 127) / 255)
		dst[i+1] = uint8((uint32(p.data[i+1])*a + 127) / 255)
		dst[i+2] = uint8((uint32(p.data[i+2])*a + 127) / 255)
		dst[i+3] = uint8(a)
	}
	return dst
}

// Flatten composites the pixmap over an opaque background and returns the
// opaque result. Hosts without alpha output use it to place a frame on the
// theme backdrop.
func (p *Pixmap) Flatten(bg RGBA) *Pixmap {
	out := &Pixmap{width: p.width, height: p.height, data: make([]uint8, len(p.data))}
	br, bgG, bb := uint32(to8(bg.R)), uint32(to8(bg.G)), uint32(to8(bg.B))
	for i := 0; i < len(p.data); i += 4 {
		a := uint32(p.data[i+3])
		out.data[i+0] = uint8((uint32(p.data[i+0])*a + br*(255-a) + 127) / 255)
		out.data[i+1] = uint8((uint32(p.data[i+1])*a + bgG*(255-a) + 127) / 255)
		out.data[i+2] = uint8((uint32(p.data[i+2])*a + bb*(255-a) + 127) / 255)
		out.data[i+3] = 255
	}
	return out
}

// ToImage converts the pixmap to an image.NRGBA.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			pm.SetPixel(x, y, FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return pm
}

// EncodePNG writes the pixmap to w as PNG.
func (p *Pixmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, p.ToImage())
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.NRGBA{}
	}
	i := (y*p.width + x) * 4
	return color.NRGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
