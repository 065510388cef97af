package glowtext

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/metrics"
	"github.com/splashos/glowtext/text"
)

// Effect defaults.
const (
	DefaultBlur       = field.DefaultParticleBlur
	DefaultGlow       = 0.18
	DefaultSaturation = 1.0
)

// Dimensions is the measured text box and font descriptor a mask was
// built for.
type Dimensions = text.Dimensions

// Strategy selects the color field algorithm.
type Strategy int

const (
	// StrategyParticle drifts radial blobs over a moving gradient.
	StrategyParticle Strategy = iota
	// StrategyNoise maps domain-warped fractal noise through the palette.
	StrategyNoise
)

// String returns the strategy name used in configuration files.
func (s Strategy) String() string {
	switch s {
	case StrategyParticle:
		return "particle"
	case StrategyNoise:
		return "noise"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name. The empty string is
// StrategyParticle.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "particle", "particles":
		return StrategyParticle, nil
	case "noise":
		return StrategyNoise, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Options describes the effect. Zero values take defaults.
type Options struct {
	// Text is the string to render. Required.
	Text string

	// Colors are hex palette entries. Empty means the default palette.
	Colors []string

	// Speed scales animation time. Zero means the strategy default.
	Speed float64

	// Blur is the particle blur radius in logical pixels; it also sets the
	// mask padding. Zero means DefaultBlur, negative disables blur.
	Blur float64

	// ParticleCount is clamped to [8, 80]; zero means 36.
	ParticleCount int

	// FontSize in logical pixels; zero means text.DefaultSize.
	FontSize float64

	// FontFamily is a CSS-like family list, for example "Inter, sans-serif".
	FontFamily string

	// FontWeight in CSS units; zero means text.DefaultWeight.
	FontWeight int

	// Italic selects an italic face when the family has one.
	Italic bool

	Strategy Strategy

	// DevicePixelRatio is raster pixels per logical pixel; zero means 1.
	DevicePixelRatio float64

	// Glow is the opacity of the white inner glow. Zero means DefaultGlow,
	// negative disables it.
	Glow float64

	// Saturation multiplies particle color saturation. Zero means 1.
	Saturation float64

	// Seed makes particle placement reproducible.
	Seed uint64
}

// Style returns the text style the options describe.
func (o Options) Style() text.Style {
	return text.Style{
		Family: o.FontFamily,
		Size:   o.FontSize,
		Weight: o.FontWeight,
		Italic: o.Italic,
	}
}

// maskBlur is the blur used for mask padding.
func (o Options) maskBlur() float64 {
	switch {
	case o.Blur < 0:
		return 0
	case o.Blur == 0:
		return DefaultBlur
	default:
		return o.Blur
	}
}

func (o Options) glow() float64 {
	switch {
	case o.Glow < 0:
		return 0
	case o.Glow == 0:
		return DefaultGlow
	default:
		return min(o.Glow, 1)
	}
}

func (o Options) dpr() float64 {
	if o.DevicePixelRatio <= 0 {
		return 1
	}
	return o.DevicePixelRatio
}

// FieldFactory creates the color field for a component. It is called on
// Mount and again after Unmount and a later Mount.
type FieldFactory func(Options) (field.Field, error)

// Option configures an AnimatedTextField during creation.
// Use functional options to inject collaborators.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	f, err := glowtext.New(q, opts,
//	    glowtext.WithLogger(slog.Default()),
//	    glowtext.WithMetrics(metrics.New(reg)),
//	)
type Option func(*componentOptions)

// componentOptions holds optional collaborators for a component.
type componentOptions struct {
	logger   *slog.Logger
	metrics  *metrics.Collectors
	registry *text.Registry
	factory  FieldFactory

	fixedField bool
}

func defaultOptions() componentOptions {
	return componentOptions{
		logger:  nil, // package logger
		factory: NewField,
	}
}

// WithLogger sets the logger for one component. Without it the package
// logger from SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *componentOptions) {
		o.logger = l
	}
}

// WithMetrics reports frames, rebuilds and degraded events to m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(o *componentOptions) {
		o.metrics = m
	}
}

// WithRegistry sets the font registry. Share one registry between
// components to avoid parsing the bundled fonts more than once.
func WithRegistry(r *text.Registry) Option {
	return func(o *componentOptions) {
		o.registry = r
	}
}

// WithField uses f instead of a built-in strategy. The component closes
// f on Unmount, so a component given WithField can be mounted once.
func WithField(f field.Field) Option {
	return func(o *componentOptions) {
		o.factory = func(Options) (field.Field, error) { return f, nil }
		o.fixedField = true
	}
}

// WithFieldFactory sets the constructor used for the color field. A
// factory error puts the component in degraded mode.
func WithFieldFactory(fn FieldFactory) Option {
	return func(o *componentOptions) {
		if fn != nil {
			o.factory = fn
			o.fixedField = false
		}
	}
}

// NewField creates the built-in field selected by opts.Strategy.
func NewField(opts Options) (field.Field, error) {
	switch opts.Strategy {
	case StrategyParticle:
		blur := opts.Blur
		if blur < 0 {
			blur = -1
		}
		return field.NewParticleField(field.ParticleOptions{
			Count:      opts.ParticleCount,
			Speed:      opts.Speed,
			Blur:       blur,
			Saturation: opts.Saturation,
			Seed:       opts.Seed,
		}), nil
	case StrategyNoise:
		return field.NewNoiseField(field.NoiseOptions{Speed: opts.Speed}), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, opts.Strategy)
	}
}

// Responsive font size bounds, in logical pixels: clamp(3rem, 8vw, 6rem).
const (
	MinResponsiveFontSize = 48.0
	MaxResponsiveFontSize = 96.0
	responsiveViewport    = 0.08
)

// ResponsiveFontSize derives the font size for a viewport width in
// logical pixels.
func ResponsiveFontSize(viewportWidth float64) float64 {
	return min(max(viewportWidth*responsiveViewport, MinResponsiveFontSize), MaxResponsiveFontSize)
}
