package paint

import "math"

// Layer is a premultiplied float32 RGBA buffer. It backs the passes that
// need blending precision beyond 8 bits: particle accumulation, blur and
// saturation.
type Layer struct {
	width  int
	height int
	data   []float32 // premultiplied RGBA in [0, 1]
}

// NewLayer creates a transparent layer. Non-positive dimensions are clamped to 1.
func NewLayer(width, height int) *Layer {
	width, height = max(width, 1), max(height, 1)
	return &Layer{width: width, height: height, data: make([]float32, width*height*4)}
}

// Width returns the layer width in pixels.
func (l *Layer) Width() int { return l.width }

// Height returns the layer height in pixels.
func (l *Layer) Height() int { return l.height }

// Clear makes every pixel transparent.
func (l *Layer) Clear() {
	clear(l.data)
}

// Pixel returns the straight-alpha color at (x, y).
func (l *Layer) Pixel(x, y int) RGBA {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return Transparent
	}
	i := (y*l.width + x) * 4
	return RGBA{
		R: float64(l.data[i]),
		G: float64(l.data[i+1]),
		B: float64(l.data[i+2]),
		A: float64(l.data[i+3]),
	}.Unpremultiply()
}

// Fill replaces every pixel with the brush color sampled at the pixel
// center. scale converts pixel coordinates to the brush's logical space.
func (l *Layer) Fill(b Brush, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	for y := 0; y < l.height; y++ {
		ly := (float64(y) + 0.5) / scale
		for x := 0; x < l.width; x++ {
			c := b.ColorAt((float64(x)+0.5)/scale, ly).Premultiply()
			i := (y*l.width + x) * 4
			l.data[i] = float32(c.R)
			l.data[i+1] = float32(c.G)
			l.data[i+2] = float32(c.B)
			l.data[i+3] = float32(c.A)
		}
	}
}

// DrawRadial composites g over the layer with an extra global alpha, only
// touching the pixels inside the gradient's disc.
func (l *Layer) DrawRadial(g *RadialGradient, alpha, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	minX, minY, maxX, maxY := g.Bounds()
	x0 := clampIndex(int(math.Floor(minX*scale)), l.width)
	y0 := clampIndex(int(math.Floor(minY*scale)), l.height)
	x1 := clampIndex(int(math.Ceil(maxX*scale)), l.width)
	y1 := clampIndex(int(math.Ceil(maxY*scale)), l.height)
	for y := y0; y <= y1; y++ {
		ly := (float64(y) + 0.5) / scale
		for x := x0; x <= x1; x++ {
			c := g.ColorAt((float64(x)+0.5)/scale, ly)
			if c.A <= 0 {
				continue
			}
			c.A *= alpha
			l.blendOver(x, y, c.Premultiply())
		}
	}
}

// blendOver composites a premultiplied color over the pixel at (x, y).
func (l *Layer) blendOver(x, y int, c RGBA) {
	i := (y*l.width + x) * 4
	inv := float32(1 - c.A)
	l.data[i] = float32(c.R) + l.data[i]*inv
	l.data[i+1] = float32(c.G) + l.data[i+1]*inv
	l.data[i+2] = float32(c.B) + l.data[i+2]*inv
	l.data[i+3] = float32(c.A) + l.data[i+3]*inv
}

// DrawOver composites src over the layer. Both layers must match in size.
func (l *Layer) DrawOver(src *Layer) error {
	if src.width != l.width || src.height != l.height {
		return ErrSizeMismatch
	}
	for i := 0; i < len(l.data); i += 4 {
		inv := 1 - src.data[i+3]
		l.data[i] = src.data[i] + l.data[i]*inv
		l.data[i+1] = src.data[i+1] + l.data[i+1]*inv
		l.data[i+2] = src.data[i+2] + l.data[i+2]*inv
		l.data[i+3] = src.data[i+3] + l.data[i+3]*inv
	}
	return nil
}

// Blur applies a Gaussian blur with the given standard deviation in pixels.
// Premultiplied storage keeps transparent neighbors from darkening edges.
func (l *Layer) Blur(sigma float64) {
	gaussianBlur(l.data, l.width, l.height, 4, sigma)
}

// Saturate scales color saturation by factor (1 leaves colors unchanged,
// 0 is grayscale) using Rec. 709 luminance weights.
func (l *Layer) Saturate(factor float64) {
	if factor == 1 {
		return
	}
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)
	inv := 1 - factor
	m := [9]float32{
		float32(lumR*inv + factor), float32(lumG * inv), float32(lumB * inv),
		float32(lumR * inv), float32(lumG*inv + factor), float32(lumB * inv),
		float32(lumR * inv), float32(lumG * inv), float32(lumB*inv + factor),
	}
	for i := 0; i < len(l.data); i += 4 {
		r, g, b, a := l.data[i], l.data[i+1], l.data[i+2], l.data[i+3]
		l.data[i] = clampf(m[0]*r+m[1]*g+m[2]*b, 0, a)
		l.data[i+1] = clampf(m[3]*r+m[4]*g+m[5]*b, 0, a)
		l.data[i+2] = clampf(m[6]*r+m[7]*g+m[8]*b, 0, a)
	}
}

// WriteTo converts the layer to straight alpha and stores it in dst.
func (l *Layer) WriteTo(dst *Pixmap) error {
	if dst.width != l.width || dst.height != l.height {
		return ErrSizeMismatch
	}
	for i := 0; i < len(l.data); i += 4 {
		a := l.data[i+3]
		if a <= 0 {
			dst.data[i], dst.data[i+1], dst.data[i+2], dst.data[i+3] = 0, 0, 0, 0
			continue
		}
		dst.data[i] = clampByte(l.data[i] / a * 255)
		dst.data[i+1] = clampByte(l.data[i+1] / a * 255)
		dst.data[i+2] = clampByte(l.data[i+2] / a * 255)
		dst.data[i+3] = clampByte(a * 255)
	}
	return nil
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
