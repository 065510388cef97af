package text

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// HarfbuzzShaper is not safe for concurrent use, so each call borrows
// one from the pool.
var shaperPool = sync.Pool{
	New: func() any {
		return &shaping.HarfbuzzShaper{}
	},
}

// positionedGlyph is a shaped glyph in logical units relative to the run
// origin on the baseline. Y grows upward.
type positionedGlyph struct {
	id   sfnt.GlyphIndex
	x, y float64
}

// run is one shaped line of text together with the metrics of its font.
type run struct {
	src     *FontSource
	style   Style
	glyphs  []positionedGlyph
	advance float64
	ascent  float64
	descent float64
}

// shape resolves the font for st and shapes s as a single left-to-right
// line.
func (r *Registry) shape(s string, st Style) (*run, error) {
	st = st.normalized()
	src, err := r.LookupStyle(st)
	if err != nil {
		return nil, err
	}

	rn := &run{src: src, style: st}
	if err := rn.loadMetrics(); err != nil {
		return nil, err
	}

	runes := []rune(prepareText(s))
	if len(runes) == 0 {
		return rn, nil
	}

	// font.Face is NOT safe for concurrent use; font.Font is.
	face := font.NewFace(src.shaping)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      floatToFixed(st.Size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	shaperPool.Put(hb)

	rn.glyphs = make([]positionedGlyph, 0, len(output.Glyphs))
	var x float64
	for _, g := range output.Glyphs {
		rn.glyphs = append(rn.glyphs, positionedGlyph{
			id: sfnt.GlyphIndex(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16-bit
			x:  x + fixedToFloat(g.XOffset),
			y:  fixedToFloat(g.YOffset),
		})
		x += fixedToFloat(g.Advance)
	}
	rn.advance = x
	return rn, nil
}

// prepareText normalizes to NFC and flattens control characters to spaces
// so the text always shapes as one line.
func prepareText(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// floatToFixed converts a float64 font size to fixed.Int26_6.
func floatToFixed(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
