package theme

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Environment variables read by EnvPreference.
const (
	EnvColorScheme = "GLOWTEXT_COLOR_SCHEME"
	EnvColorFgBg   = "COLORFGBG"
)

// SystemPreference reports whether the system prefers a dark scheme.
type SystemPreference interface {
	PrefersDark() bool

	// Subscribe calls fn on every change until the returned cancel
	// function is called.
	Subscribe(fn func(dark bool)) (cancel func())
}

// StaticPreference is a SystemPreference set by the host. It is safe for
// concurrent use.
type StaticPreference struct {
	mu     sync.Mutex
	dark   bool
	nextID int
	subs   map[int]func(bool)
}

var _ SystemPreference = (*StaticPreference)(nil)

// NewStaticPreference creates a preference with the given initial value.
func NewStaticPreference(dark bool) *StaticPreference {
	return &StaticPreference{dark: dark}
}

// PrefersDark implements SystemPreference.
func (p *StaticPreference) PrefersDark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

// Set changes the preference and notifies subscribers when it differs.
func (p *StaticPreference) Set(dark bool) {
	p.mu.Lock()
	if p.dark == dark {
		p.mu.Unlock()
		return
	}
	p.dark = dark
	subs := make([]func(bool), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(dark)
	}
}

// Subscribe implements SystemPreference.
func (p *StaticPreference) Subscribe(fn func(dark bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs == nil {
		p.subs = make(map[int]func(bool))
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// EnvPreference reads the preference from the environment:
// GLOWTEXT_COLOR_SCHEME=dark|light wins, then the background index of the
// terminal's COLORFGBG ("15;0" is dark). It never changes, so Subscribe is
// a no-op.
type EnvPreference struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

var _ SystemPreference = EnvPreference{}

// PrefersDark implements SystemPreference.
func (p EnvPreference) PrefersDark() bool {
	getenv := p.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	switch strings.ToLower(strings.TrimSpace(getenv(EnvColorScheme))) {
	case "dark":
		return true
	case "light":
		return false
	}
	fgbg := getenv(EnvColorFgBg)
	if fgbg == "" {
		return false
	}
	parts := strings.Split(fgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	// ANSI 0-6 and 8 are dark backgrounds
	return bg >= 0 && bg <= 6 || bg == 8
}

// Subscribe implements SystemPreference.
func (EnvPreference) Subscribe(func(bool)) func() {
	return func() {}
}
