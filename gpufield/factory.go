package gpufield

import (
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/field"
)

// Config selects the device for NewFactory.
type Config struct {
	// Provider shares a host device. Nil opens a device per field.
	Provider gpucontext.DeviceProvider

	// Fallback renders the noise field on the CPU when no device can be
	// used. Without it the factory error degrades the component.
	Fallback bool

	// Logger receives the fallback warning. Nil uses the glowtext package
	// logger.
	Logger *slog.Logger

	open func() (*Device, error) // replaces Open in tests
}

// NewFactory returns a field factory that renders the noise strategy on
// the GPU. The particle strategy is left to glowtext.NewField.
func NewFactory(cfg Config) glowtext.FieldFactory {
	return func(opts glowtext.Options) (field.Field, error) {
		if opts.Strategy != glowtext.StrategyNoise {
			return glowtext.NewField(opts)
		}
		fld, err := cfg.newField(opts)
		if err == nil {
			return fld, nil
		}
		if !cfg.Fallback {
			return nil, err
		}
		cfg.logger().Warn("gpufield: falling back to the CPU noise field", "err", err)
		return glowtext.NewField(opts)
	}
}

func (c Config) newField(opts glowtext.Options) (*Field, error) {
	dev, err := c.device()
	if err != nil {
		return nil, err
	}
	fld, err := New(dev, Options{Speed: opts.Speed})
	if err != nil {
		return nil, err
	}
	c.logger().Debug("gpufield: field created", "adapter", dev.Name())
	return fld, nil
}

func (c Config) device() (*Device, error) {
	switch {
	case c.Provider != nil:
		return FromProvider(c.Provider)
	case c.open != nil:
		return c.open()
	default:
		return Open()
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return glowtext.Logger()
}
