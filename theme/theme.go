// Package theme tracks the light/dark preference hosts use for the
// backdrop behind the animated text.
//
// An explicit choice is persisted in a Store under StorageKey. Without
// one, the effective theme follows a SystemPreference and changes when the
// system does. Nothing happens until the host calls Service.Initialize.
package theme

import (
	"errors"
	"fmt"
	"strings"
)

// StorageKey is the key the explicit choice is stored under.
const StorageKey = "theme"

// ErrInvalidTheme is returned for a name other than light, dark or system.
var ErrInvalidTheme = errors.New("theme: invalid theme")

// Theme is a user preference. Light and Dark are explicit choices; System
// defers to the SystemPreference.
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

// Parse parses a theme name. The empty string is System.
func Parse(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case Light, Dark, System:
		return t, nil
	case "":
		return System, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// Valid reports whether t is one of the three themes.
func (t Theme) Valid() bool {
	return t == Light || t == Dark || t == System
}

// Opposite returns Dark for Light and Light for anything else.
func (t Theme) Opposite() Theme {
	if t == Light {
		return Dark
	}
	return Light
}

func (t Theme) String() string { return string(t) }
