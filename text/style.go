package text

import (
	"strconv"
	"strings"
)

// Default typography.
const (
	DefaultSize   = 96.0
	DefaultWeight = 600
)

// Style selects the font used for measurement and rasterization.
// Zero fields take the defaults.
type Style struct {
	// Family is a CSS-like family list, e.g. "Inter, sans-serif".
	Family string

	// Size is the font size in logical pixels.
	Size float64

	// Weight is a CSS weight (100..900).
	Weight int

	Italic bool
}

// DefaultStyle returns 600 96px Go.
func DefaultStyle() Style {
	return Style{Family: FamilyGo, Size: DefaultSize, Weight: DefaultWeight}
}

func (s Style) normalized() Style {
	if strings.TrimSpace(s.Family) == "" {
		s.Family = FamilyGo
	}
	if s.Size <= 0 {
		s.Size = DefaultSize
	}
	if s.Weight == 0 {
		s.Weight = DefaultWeight
	}
	s.Weight = normalizeWeight(s.Weight)
	return s
}

// Descriptor renders the style as a CSS font shorthand, for example
// "600 96px Go" or "italic 400 48px Go Mono".
func (s Style) Descriptor() string {
	s = s.normalized()
	var b strings.Builder
	if s.Italic {
		b.WriteString("italic ")
	}
	b.WriteString(strconv.Itoa(s.Weight))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(s.Size, 'f', -1, 64))
	b.WriteString("px ")
	b.WriteString(strings.TrimSpace(s.Family))
	return b.String()
}
