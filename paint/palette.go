package paint

import "math"

// defaultPaletteHex is the built-in five-stop palette used when a caller
// supplies no colors.
var defaultPaletteHex = []string{"#7DD3FC", "#60A5FA", "#A78BFA", "#F472B6", "#FCD34D"}

// Palette is an ordered, immutable list of gradient stops. Stop i sits at
// offset i/(n-1). A Palette always has at least one color.
type Palette struct {
	colors []RGBA
}

// DefaultPalette returns the built-in five-color palette.
func DefaultPalette() Palette {
	colors := make([]RGBA, len(defaultPaletteHex))
	for i, h := range defaultPaletteHex {
		colors[i] = MustHex(h)
	}
	return Palette{colors: colors}
}

// ParsePalette parses hex strings into a Palette, keeping their order.
// An empty list yields DefaultPalette.
func ParsePalette(hex []string) (Palette, error) {
	if len(hex) == 0 {
		return DefaultPalette(), nil
	}
	colors := make([]RGBA, len(hex))
	for i, h := range hex {
		c, err := Hex(h)
		if err != nil {
			return Palette{}, err
		}
		colors[i] = c
	}
	return Palette{colors: colors}, nil
}

// NewPalette builds a Palette from colors. An empty list yields DefaultPalette.
func NewPalette(colors ...RGBA) Palette {
	if len(colors) == 0 {
		return DefaultPalette()
	}
	cp := make([]RGBA, len(colors))
	copy(cp, colors)
	return Palette{colors: cp}
}

// Len returns the number of stops.
func (p Palette) Len() int {
	if len(p.colors) == 0 {
		return len(defaultPaletteHex)
	}
	return len(p.colors)
}

// Color returns stop i. Indexes wrap around the palette.
func (p Palette) Color(i int) RGBA {
	colors := p.stops()
	n := len(colors)
	i %= n
	if i < 0 {
		i += n
	}
	return colors[i]
}

// Colors returns a copy of the stops.
func (p Palette) Colors() []RGBA {
	colors := p.stops()
	cp := make([]RGBA, len(colors))
	copy(cp, colors)
	return cp
}

// Hex returns the stops formatted as "#rrggbb".
func (p Palette) Hex() []string {
	colors := p.stops()
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.Hex()
	}
	return out
}

// Equal reports whether both palettes hold the same stops in the same order.
func (p Palette) Equal(other Palette) bool {
	a, b := p.stops(), other.stops()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// At maps t in [0, 1] through the palette as a piecewise-linear gradient.
// Values outside [0, 1] are clamped. A single-stop palette is constant.
func (p Palette) At(t float64) RGBA {
	colors := p.stops()
	n := len(colors)
	if n == 1 {
		return colors[0]
	}
	t = clamp01(t)
	pos := t * float64(n-1)
	i := int(math.Floor(pos))
	if i >= n-1 {
		return colors[n-1]
	}
	return colors[i].Lerp(colors[i+1], pos-float64(i))
}

// Stops returns the palette as evenly spaced gradient stops.
func (p Palette) Stops() []ColorStop {
	colors := p.stops()
	if len(colors) == 1 {
		return []ColorStop{{Offset: 0, Color: colors[0]}, {Offset: 1, Color: colors[0]}}
	}
	last := float64(len(colors) - 1)
	stops := make([]ColorStop, len(colors))
	for i, c := range colors {
		stops[i] = ColorStop{Offset: float64(i) / last, Color: c}
	}
	return stops
}

// stops returns the backing colors, treating the zero Palette as the default.
func (p Palette) stops() []RGBA {
	if len(p.colors) == 0 {
		return DefaultPalette().colors
	}
	return p.colors
}
