package text

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// FontSource represents a loaded font file.
// It holds two parsed views of the same data: sfnt for outlines and
// metrics, go-text for shaping. Both are read-only after creation.
//
// FontSource is safe for concurrent use.
type FontSource struct {
	data []byte

	outlines *sfnt.Font
	shaping  *font.Font

	name   string
	family string
	weight int
	italic bool
}

// NewFontSource parses font data (TTF or OTF).
// The data slice is copied internally and can be reused after this call.
func NewFontSource(data []byte) (*FontSource, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	outlines, err := sfnt.Parse(dataCopy)
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font: %w", err)
	}

	face, err := font.ParseTTF(bytes.NewReader(dataCopy))
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font for shaping: %w", err)
	}

	s := &FontSource{
		data:     dataCopy,
		outlines: outlines,
		shaping:  face.Font,
		weight:   400,
	}
	s.name = extractFontName(outlines)
	return s, nil
}

// NewFontSourceFromFile loads a FontSource from a font file path.
func NewFontSourceFromFile(path string) (*FontSource, error) {
	// #nosec G304 -- Font file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("text: failed to read font file: %w", err)
	}
	return NewFontSource(data)
}

// Name returns the family name stored in the font.
func (s *FontSource) Name() string {
	return s.name
}

// Family returns the family the source was registered under.
func (s *FontSource) Family() string {
	if s.family == "" {
		return s.name
	}
	return s.family
}

// Weight returns the CSS weight the source was registered with.
func (s *FontSource) Weight() int {
	return s.weight
}

// Italic reports whether the source was registered as an italic face.
func (s *FontSource) Italic() bool {
	return s.italic
}

// extractFontName extracts the font family name, falling back to the
// full name.
func extractFontName(f *sfnt.Font) string {
	var buf sfnt.Buffer
	if name, err := f.Name(&buf, sfnt.NameIDFamily); err == nil && name != "" {
		return name
	}
	if name, err := f.Name(&buf, sfnt.NameIDFull); err == nil && name != "" {
		return name
	}
	return "Unknown Font"
}
