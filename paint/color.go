package paint

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1]. RGBA values are straight
// (not premultiplied) unless a function says otherwise.
type RGBA struct {
	R, G, B, A float64
}

// ColorError reports a color string that could not be parsed.
type ColorError struct {
	Value string
	Err   error
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("paint: invalid color %q: %v", e.Value, e.Err)
}

func (e *ColorError) Unwrap() error { return e.Err }

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Hex parses a CSS hex color ("#RGB" or "#RRGGBB", leading '#' optional).
func Hex(s string) (RGBA, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if (len(v) != 3 && len(v) != 6) || strings.Trim(v, hexDigits) != "" {
		return RGBA{}, &ColorError{Value: s, Err: ErrInvalidColor}
	}
	c, err := colorful.Hex("#" + v)
	if err != nil {
		return RGBA{}, &ColorError{Value: s, Err: fmt.Errorf("%w: %v", ErrInvalidColor, err)}
	}
	return fromColorful(c), nil
}

const hexDigits = "0123456789abcdefABCDEF"

// MustHex is like Hex but panics on malformed input. Intended for
// package-level tables of known-good colors.
func MustHex(s string) RGBA {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#rrggbb", dropping alpha.
func (c RGBA) Hex() string {
	return c.colorful().Clamped().Hex()
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return RGBA{
		R: float64(n.R) / 65535,
		G: float64(n.G) / 65535,
		B: float64(n.B) / 65535,
		A: float64(n.A) / 65535,
	}
}

// Lerp performs linear interpolation between two colors in sRGB space,
// the space canvas gradients interpolate in.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Mix blends the RGB channels toward other by ratio and rounds the result
// to 8 bits per channel. Alpha is kept from c. Repeated Mix calls behave
// like repeated hex-string blends, which is what the particle color
// diffusion relies on.
func (c RGBA) Mix(other RGBA, ratio float64) RGBA {
	return fromColorful(c.colorful().BlendRgb(other.colorful(), ratio)).WithAlpha(c.A)
}

// WithAlpha returns c with its alpha replaced.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = a
	return c
}

// Premultiply returns a premultiplied color.
func (c RGBA) Premultiply() RGBA {
	return RGBA{
		R: c.R * c.A,
		G: c.G * c.A,
		B: c.B * c.A,
		A: c.A,
	}
}

// Unpremultiply returns an unpremultiplied color.
func (c RGBA) Unpremultiply() RGBA {
	if c.A == 0 {
		return RGBA{}
	}
	return RGBA{
		R: c.R / c.A,
		G: c.G / c.A,
		B: c.B / c.A,
		A: c.A,
	}
}

// Near reports whether every channel of c and other differs by at most tol.
func (c RGBA) Near(other RGBA, tol float64) bool {
	return absf(c.R-other.R) <= tol && absf(c.G-other.G) <= tol &&
		absf(c.B-other.B) <= tol && absf(c.A-other.A) <= tol
}

func (c RGBA) colorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// fromColorful quantizes to 8 bits per channel so parsed and mixed colors
// compare equal.
func fromColorful(c colorful.Color) RGBA {
	r, g, b := c.Clamped().RGB255()
	return RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// to8 converts a [0, 1] component to uint8 with rounding.
func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Transparent = RGBA{}
)
