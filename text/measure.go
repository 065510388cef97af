package text

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
)

// Metrics is the measured logical box of a line of text.
// A Metrics value is replaced wholesale on change and never mutated.
type Metrics struct {
	// Width is the sum of glyph advances, at least 1.
	Width float64

	// Height is ascent plus descent, at least 1.
	Height float64

	// Ascent is the distance from the baseline to the top of the line.
	Ascent float64

	// Descent is the distance from the baseline to the bottom of the line
	// (positive).
	Descent float64

	// Font is the CSS-like descriptor of the style, e.g. "600 96px Go".
	Font string
}

// Dimensions returns the cache key used to debounce mask rebuilds.
func (m Metrics) Dimensions() Dimensions {
	return Dimensions{Width: m.Width, Height: m.Height, Font: m.Font}
}

// Measure shapes s with st and returns its logical box. Empty or
// zero-width text is clamped to a 1-unit width; it is not an error.
func (r *Registry) Measure(s string, st Style) (Metrics, error) {
	rn, err := r.shape(s, st)
	if err != nil {
		return Metrics{}, err
	}
	return rn.metrics(), nil
}

func (rn *run) metrics() Metrics {
	return Metrics{
		Width:   max(rn.advance, 1),
		Height:  max(rn.ascent+rn.descent, 1),
		Ascent:  rn.ascent,
		Descent: rn.descent,
		Font:    rn.style.Descriptor(),
	}
}

// loadMetrics reads the line metrics of the run's font at its logical size.
func (rn *run) loadMetrics() error {
	var buf sfnt.Buffer
	m, err := rn.src.outlines.Metrics(&buf, floatToFixed(rn.style.Size), font.HintingNone)
	if err != nil {
		return fmt.Errorf("text: font metrics: %w", err)
	}
	rn.ascent = fixedToFloat(m.Ascent)
	rn.descent = fixedToFloat(m.Descent)
	return nil
}
