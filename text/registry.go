package text

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Family names of the bundled Go fonts.
const (
	FamilyGo     = "Go"
	FamilyGoMono = "Go Mono"
)

// genericFamilies maps CSS generic family keywords onto bundled fonts.
var genericFamilies = map[string]string{
	"":              FamilyGo,
	"inherit":       FamilyGo,
	"initial":       FamilyGo,
	"sans-serif":    FamilyGo,
	"serif":         FamilyGo,
	"system-ui":     FamilyGo,
	"ui-sans-serif": FamilyGo,
	"monospace":     FamilyGoMono,
	"ui-monospace":  FamilyGoMono,
}

// Registry maps font families and weights to font sources.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[string][]*FontSource
	names    map[string]string
}

// NewRegistry creates a registry preloaded with the Go fonts.
// It panics only if the bundled font data is corrupt.
func NewRegistry() *Registry {
	r := &Registry{
		families: make(map[string][]*FontSource),
		names:    make(map[string]string),
	}
	bundled := []struct {
		family string
		weight int
		italic bool
		data   []byte
	}{
		{FamilyGo, 400, false, goregular.TTF},
		{FamilyGo, 500, false, gomedium.TTF},
		{FamilyGo, 700, false, gobold.TTF},
		{FamilyGo, 400, true, goitalic.TTF},
		{FamilyGo, 500, true, gomediumitalic.TTF},
		{FamilyGo, 700, true, gobolditalic.TTF},
		{FamilyGoMono, 400, false, gomono.TTF},
		{FamilyGoMono, 700, false, gomonobold.TTF},
	}
	for _, b := range bundled {
		if err := r.register(b.family, b.weight, b.italic, b.data); err != nil {
			panic(fmt.Sprintf("text: bundled font %s %d: %v", b.family, b.weight, err))
		}
	}
	return r
}

// Register adds an upright font for family at the given CSS weight.
// A later registration with the same family, weight and slant replaces the
// earlier one.
func (r *Registry) Register(family string, weight int, data []byte) error {
	return r.register(family, weight, false, data)
}

// RegisterItalic adds an italic font for family at the given CSS weight.
func (r *Registry) RegisterItalic(family string, weight int, data []byte) error {
	return r.register(family, weight, true, data)
}

func (r *Registry) register(family string, weight int, italic bool, data []byte) error {
	family = strings.TrimSpace(family)
	if family == "" {
		return errors.New("text: register: empty family name")
	}
	src, err := NewFontSource(data)
	if err != nil {
		return err
	}
	src.family = family
	src.weight = normalizeWeight(weight)
	src.italic = italic

	key := strings.ToLower(family)

	r.mu.Lock()
	defer r.mu.Unlock()
	list := slices.DeleteFunc(r.families[key], func(s *FontSource) bool {
		return s.weight == src.weight && s.italic == italic
	})
	r.families[key] = append(list, src)
	r.names[key] = family
	return nil
}

// Families returns the registered family names in sorted order.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the upright source of family closest to weight.
func (r *Registry) Lookup(family string, weight int) (*FontSource, error) {
	return r.lookup(family, weight, false)
}

// LookupStyle resolves the source for a Style, honoring its slant.
func (r *Registry) LookupStyle(st Style) (*FontSource, error) {
	st = st.normalized()
	return r.lookup(st.Family, st.Weight, st.Italic)
}

// lookup resolves a CSS-like family list ("Inter, system-ui, sans-serif")
// from left to right. Unknown families fall back to Go.
func (r *Registry) lookup(family string, weight int, italic bool) (*FontSource, error) {
	weight = normalizeWeight(weight)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range splitFamilies(family) {
		if src := r.closest(name, weight, italic); src != nil {
			return src, nil
		}
	}
	if src := r.closest(FamilyGo, weight, italic); src != nil {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoFont, family)
}

func (r *Registry) closest(family string, weight int, italic bool) *FontSource {
	key := strings.ToLower(family)
	if alias, ok := genericFamilies[key]; ok {
		key = strings.ToLower(alias)
	}
	list := r.families[key]
	if len(list) == 0 {
		return nil
	}

	var best *FontSource
	bestScore := 0
	for _, src := range list {
		score := absInt(src.weight - weight)
		if src.italic != italic {
			score += 10000
		}
		// ties go to the heavier face
		if best == nil || score < bestScore || (score == bestScore && src.weight > best.weight) {
			best, bestScore = src, score
		}
	}
	return best
}

// splitFamilies splits a CSS font-family list and strips quotes.
func splitFamilies(family string) []string {
	parts := strings.Split(family, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		out = append(out, p)
	}
	return out
}

// normalizeWeight clamps a CSS weight into [1, 1000]; zero means 400.
func normalizeWeight(w int) int {
	if w == 0 {
		return 400
	}
	return min(max(w, 1), 1000)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
