// Package config loads the YAML configuration shared by the glowtext hosts
// and reloads it when the file changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/splashos/glowtext"
)

// Config is the root of the configuration file.
type Config struct {
	Effect EffectConfig `yaml:"effect"`
	Theme  ThemeConfig  `yaml:"theme"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// EffectConfig mirrors glowtext.Options.
type EffectConfig struct {
	Text             string   `yaml:"text"`
	Colors           []string `yaml:"colors"`
	Speed            float64  `yaml:"speed"`
	Blur             float64  `yaml:"blur"`
	ParticleCount    int      `yaml:"particle_count"`
	FontSize         float64  `yaml:"font_size"`
	FontFamily       string   `yaml:"font_family"`
	FontWeight       int      `yaml:"font_weight"`
	Italic           bool     `yaml:"italic"`
	Strategy         string   `yaml:"strategy"`
	DevicePixelRatio float64  `yaml:"device_pixel_ratio"`
	Glow             float64  `yaml:"glow"`
	Saturation       float64  `yaml:"saturation"`
	Seed             uint64   `yaml:"seed"`

	// Backend renders the noise strategy on the cpu or, when an adapter
	// is available, the gpu.
	Backend string `yaml:"backend"`

	// Fonts registers extra TTF/OTF files before the effect is built.
	Fonts []FontFile `yaml:"fonts"`
}

// FontFile is one font registered under a family.
type FontFile struct {
	Family string `yaml:"family"`
	Path   string `yaml:"path"`
	Weight int    `yaml:"weight"` // CSS weight, 0 means 400
	Italic bool   `yaml:"italic"`
}

// ThemeConfig selects where the theme choice is persisted.
type ThemeConfig struct {
	Store   string `yaml:"store"` // memory, gdata or badger
	Path    string `yaml:"path"`  // badger directory; empty is in-memory
	AppName string `yaml:"app_name"`
	Default string `yaml:"default"` // applied on first run when nothing is stored
}

// RenderConfig drives the offline renderer.
type RenderConfig struct {
	// Width is the viewport width used to derive a responsive font size
	// when effect.font_size is zero.
	Width  int    `yaml:"width"`
	FPS    int    `yaml:"fps"`
	Frames int    `yaml:"frames"`
	Format string `yaml:"format"` // png or gif
	Output string `yaml:"output"`
}

// ServerConfig configures the HTTP preview.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Effect: EffectConfig{
			Text:          "Reimagined.",
			Colors:        []string{"#3B82F6", "#8B5CF6", "#EC4899", "#10B981", "#F59E0B"},
			Speed:         0.5,
			Blur:          15,
			ParticleCount: 50,
			Strategy:      glowtext.StrategyParticle.String(),
			Backend:       "cpu",
		},
		Theme: ThemeConfig{
			Store:   "memory",
			AppName: "glowtext",
			Default: "system",
		},
		Render: RenderConfig{
			Width:  1280,
			FPS:    30,
			Frames: 60,
			Format: "png",
			Output: "frames",
		},
		Server: ServerConfig{
			Addr:       ":8080",
			RateLimit:  60,
			RateWindow: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	// #nosec G304 -- the path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses YAML strictly into cfg. Keys absent from data keep their
// current value; unknown keys are an error.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: strict parse: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config: file contains multiple documents or trailing content")
	}
	return nil
}

// Options converts the effect section to component options.
func (e EffectConfig) Options() (glowtext.Options, error) {
	strategy, err := glowtext.ParseStrategy(e.Strategy)
	if err != nil {
		return glowtext.Options{}, err
	}
	return glowtext.Options{
		Text:             e.Text,
		Colors:           append([]string(nil), e.Colors...),
		Speed:            e.Speed,
		Blur:             e.Blur,
		ParticleCount:    e.ParticleCount,
		FontSize:         e.FontSize,
		FontFamily:       e.FontFamily,
		FontWeight:       e.FontWeight,
		Italic:           e.Italic,
		Strategy:         strategy,
		DevicePixelRatio: e.DevicePixelRatio,
		Glow:             e.Glow,
		Saturation:       e.Saturation,
		Seed:             e.Seed,
	}, nil
}
