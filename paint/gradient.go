package paint

import (
	"math"
	"sort"
)

// Brush produces a color for any logical point.
type Brush interface {
	ColorAt(x, y float64) RGBA
}

// Solid is a Brush with a single color.
type Solid RGBA

// ColorAt implements Brush.
func (s Solid) ColorAt(_, _ float64) RGBA { return RGBA(s) }

// ExtendMode defines how gradients extend beyond their defined bounds.
type ExtendMode int

const (
	// ExtendPad extends edge colors beyond bounds (default behavior).
	ExtendPad ExtendMode = iota
	// ExtendRepeat repeats the gradient pattern.
	ExtendRepeat
	// ExtendReflect mirrors the gradient pattern.
	ExtendReflect
)

// ColorStop represents a color at a specific position in a gradient.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  RGBA    // Color at this position
}

// sortStops returns a copy of stops ordered by offset. Equal offsets keep
// insertion order so a hard stop stays a hard stop.
func sortStops(stops []ColorStop) []ColorStop {
	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

// applyExtendMode applies the extend mode to normalize t to [0, 1].
func applyExtendMode(t float64, mode ExtendMode) float64 {
	switch mode {
	case ExtendRepeat:
		t -= math.Floor(t)
	case ExtendReflect:
		t = math.Abs(t)
		period := math.Floor(t)
		t -= period
		if int(period)%2 == 1 {
			t = 1 - t
		}
	default: // ExtendPad
		t = clamp01(t)
	}
	return t
}

// colorAtOffset returns the interpolated color at a given offset.
// Stops must be sorted.
func colorAtOffset(sorted []ColorStop, t float64, mode ExtendMode) RGBA {
	switch len(sorted) {
	case 0:
		return Transparent
	case 1:
		return sorted[0].Color
	}

	t = applyExtendMode(t, mode)

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Offset >= t
	})
	if idx == 0 {
		return sorted[0].Color
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1].Color
	}

	stop1 := sorted[idx-1]
	stop2 := sorted[idx]
	if stop2.Offset == stop1.Offset {
		return stop1.Color
	}
	localT := (t - stop1.Offset) / (stop2.Offset - stop1.Offset)
	return stop1.Color.Lerp(stop2.Color, localT)
}

// LinearGradient is a Brush with a color transition along the segment
// from Start to End.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Extend         ExtendMode

	stops []ColorStop
}

// NewLinearGradient creates a new linear gradient from (x0, y0) to (x1, y1).
func NewLinearGradient(x0, y0, x1, y1 float64) *LinearGradient {
	return &LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// AddColorStop adds a color stop at the specified offset.
// Returns the gradient for method chaining.
func (g *LinearGradient) AddColorStop(offset float64, c RGBA) *LinearGradient {
	g.stops = sortStops(append(g.stops, ColorStop{Offset: offset, Color: c}))
	return g
}

// SetStops replaces all color stops.
func (g *LinearGradient) SetStops(stops []ColorStop) *LinearGradient {
	g.stops = sortStops(stops)
	return g
}

// ColorAt implements Brush.
func (g *LinearGradient) ColorAt(x, y float64) RGBA {
	dx := g.X1 - g.X0
	dy := g.Y1 - g.Y0
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return colorAtOffset(g.stops, 0, ExtendPad)
	}

	// t = dot(P - Start, End - Start) / |End - Start|^2
	t := ((x-g.X0)*dx + (y-g.Y0)*dy) / lengthSq
	return colorAtOffset(g.stops, t, g.Extend)
}

// RadialGradient is a Brush whose colors radiate from a center between an
// inner and an outer radius. Points beyond the outer radius are transparent,
// matching a filled circle of that radius.
type RadialGradient struct {
	CX, CY      float64
	StartRadius float64
	EndRadius   float64

	stops []ColorStop
}

// NewRadialGradient creates a radial gradient around (cx, cy).
func NewRadialGradient(cx, cy, startRadius, endRadius float64) *RadialGradient {
	return &RadialGradient{CX: cx, CY: cy, StartRadius: startRadius, EndRadius: endRadius}
}

// AddColorStop adds a color stop at the specified offset.
// Returns the gradient for method chaining.
func (g *RadialGradient) AddColorStop(offset float64, c RGBA) *RadialGradient {
	g.stops = sortStops(append(g.stops, ColorStop{Offset: offset, Color: c}))
	return g
}

// ColorAt implements Brush.
func (g *RadialGradient) ColorAt(x, y float64) RGBA {
	dx := x - g.CX
	dy := y - g.CY
	distance := math.Sqrt(dx*dx + dy*dy)
	if distance > g.EndRadius {
		return Transparent
	}
	radiusDiff := g.EndRadius - g.StartRadius
	if radiusDiff <= 0 {
		return colorAtOffset(g.stops, 0, ExtendPad)
	}
	return colorAtOffset(g.stops, (distance-g.StartRadius)/radiusDiff, ExtendPad)
}

// Bounds returns the logical bounding box of the painted disc.
func (g *RadialGradient) Bounds() (minX, minY, maxX, maxY float64) {
	return g.CX - g.EndRadius, g.CY - g.EndRadius, g.CX + g.EndRadius, g.CY + g.EndRadius
}
