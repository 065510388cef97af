package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/theme"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

type validator struct {
	errs []error
}

func (v *validator) add(field, msg string, value any) {
	v.errs = append(v.errs, &FieldError{Field: field, Message: msg, Value: value})
}

func (v *validator) nonNegative(field string, value float64) {
	if value < 0 {
		v.add(field, "must not be negative", value)
	}
}

func (v *validator) rangeInt(field string, value, lo, hi int) {
	if value < lo || value > hi {
		v.add(field, fmt.Sprintf("must be between %d and %d", lo, hi), value)
	}
}

func (v *validator) oneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.add(field, "must be one of "+strings.Join(allowed, ", "), value)
}

// Validate reports every invalid field of cfg, joined. Each error wraps
// ErrInvalid.
func Validate(cfg Config) error {
	var v validator

	e := cfg.Effect
	if strings.TrimSpace(e.Text) == "" {
		v.add("effect.text", "is required", e.Text)
	}
	for i, c := range e.Colors {
		if _, err := paint.Hex(c); err != nil {
			v.add(fmt.Sprintf("effect.colors[%d]", i), "must be #RGB or #RRGGBB", c)
		}
	}
	if _, err := glowtext.ParseStrategy(e.Strategy); err != nil {
		v.add("effect.strategy", "must be particle or noise", e.Strategy)
	}
	v.oneOf("effect.backend", e.Backend, "cpu", "gpu")
	v.nonNegative("effect.speed", e.Speed)
	v.nonNegative("effect.font_size", e.FontSize)
	v.nonNegative("effect.device_pixel_ratio", e.DevicePixelRatio)
	v.nonNegative("effect.saturation", e.Saturation)
	v.rangeInt("effect.particle_count", e.ParticleCount, 0, 1000)
	v.rangeInt("effect.font_weight", e.FontWeight, 0, 1000)
	if e.Glow > 1 {
		v.add("effect.glow", "must be at most 1", e.Glow)
	}
	for i, f := range e.Fonts {
		if strings.TrimSpace(f.Family) == "" || f.Path == "" {
			v.add(fmt.Sprintf("effect.fonts[%d]", i), "needs a family and a path", f.Family)
		}
		v.rangeInt(fmt.Sprintf("effect.fonts[%d].weight", i), f.Weight, 0, 1000)
	}

	v.oneOf("theme.store", cfg.Theme.Store, "memory", "gdata", "badger")
	if cfg.Theme.Store == "gdata" && cfg.Theme.AppName == "" {
		v.add("theme.app_name", "is required for the gdata store", cfg.Theme.AppName)
	}
	if _, err := theme.Parse(cfg.Theme.Default); err != nil {
		v.add("theme.default", "must be light, dark or system", cfg.Theme.Default)
	}

	r := cfg.Render
	v.rangeInt("render.width", r.Width, 0, 16384)
	v.rangeInt("render.fps", r.FPS, 1, 240)
	v.rangeInt("render.frames", r.Frames, 1, 100000)
	v.oneOf("render.format", r.Format, "png", "gif")

	s := cfg.Server
	if s.Addr == "" {
		v.add("server.addr", "is required", s.Addr)
	}
	if s.RateLimit < 0 {
		v.add("server.rate_limit", "must not be negative", s.RateLimit)
	}
	if s.RateLimit > 0 && s.RateWindow <= 0 {
		v.add("server.rate_window", "must be positive when rate_limit is set", s.RateWindow)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		v.add("log.level", "must be debug, info, warn or error", cfg.Log.Level)
	}
	v.oneOf("log.format", cfg.Log.Format, "text", "json")

	return errors.Join(v.errs...)
}
