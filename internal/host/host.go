// Package host holds the setup shared by the glowtext commands: config,
// logging, fonts, the theme service and effect construction.
package host

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/gpufield"
	"github.com/splashos/glowtext/metrics"
	"github.com/splashos/glowtext/text"
	"github.com/splashos/glowtext/theme"
)

// Env is the wiring every command starts from.
type Env struct {
	Holder   *config.Holder
	Log      *slog.Logger
	Registry *text.Registry
	Theme    *theme.Service

	closeStore func() error
}

// Setup loads the config at path (empty for defaults), installs the
// configured logger as the glowtext package logger, registers extra fonts
// and initializes the theme service.
func Setup(path string, logOut io.Writer) (env *Env, err error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	glowtext.SetLogger(log)

	holder, err := config.NewHolder(path, log)
	if err != nil {
		return nil, err
	}

	reg := text.NewRegistry()
	if err := RegisterFonts(reg, cfg.Effect.Fonts); err != nil {
		return nil, err
	}

	store, closeStore, err := theme.OpenStore(cfg.Theme.Store, cfg.Theme.Path, cfg.Theme.AppName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = closeStore()
		}
	}()

	svc := theme.NewService(store, theme.EnvPreference{}, log)
	if err := svc.Initialize(); err != nil {
		log.Warn("theme: stored preference unavailable", "err", err)
	}
	if err := applyDefaultTheme(svc, cfg.Theme.Default); err != nil {
		return nil, err
	}

	return &Env{
		Holder:     holder,
		Log:        log,
		Registry:   reg,
		Theme:      svc,
		closeStore: closeStore,
	}, nil
}

// applyDefaultTheme stores the configured default on first run.
func applyDefaultTheme(svc *theme.Service, name string) error {
	def, err := theme.Parse(name)
	if err != nil {
		return err
	}
	if def == theme.System || svc.Current() != theme.System {
		return nil
	}
	return svc.SetTheme(def)
}

// Close releases the theme store.
func (e *Env) Close() error {
	e.Theme.Close()
	return e.closeStore()
}

// RegisterFonts loads each font file into reg. Every failing file is
// reported; the others are still registered.
func RegisterFonts(reg *text.Registry, fonts []config.FontFile) error {
	var errs []error
	for _, f := range fonts {
		data, err := os.ReadFile(f.Path) // #nosec G304 -- paths come from the operator's config
		if err == nil {
			if f.Italic {
				err = reg.RegisterItalic(f.Family, f.Weight, data)
			} else {
				err = reg.Register(f.Family, f.Weight, data)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("font %q: %w", f.Family, err))
		}
	}
	return errors.Join(errs...)
}

// EffectOptions returns the component options for cfg. A zero font size
// is derived from viewportWidth; a positive dpr overrides the config.
func EffectOptions(cfg config.Config, viewportWidth, dpr float64) (glowtext.Options, error) {
	opts, err := cfg.Effect.Options()
	if err != nil {
		return glowtext.Options{}, err
	}
	if opts.FontSize == 0 && viewportWidth > 0 {
		opts.FontSize = glowtext.ResponsiveFontSize(viewportWidth)
	}
	if dpr > 0 {
		opts.DevicePixelRatio = dpr
	}
	return opts, nil
}

// NewEffect builds a component sharing the env's registry and logger,
// with the field backend of the current config.
func (e *Env) NewEffect(s clock.Scheduler, opts glowtext.Options, m *metrics.Collectors) (*glowtext.AnimatedTextField, error) {
	return glowtext.New(s, opts,
		glowtext.WithLogger(e.Log),
		glowtext.WithRegistry(e.Registry),
		glowtext.WithMetrics(m),
		glowtext.WithFieldFactory(FieldFactory(e.Holder.Get().Effect.Backend, e.Log)),
	)
}

// FieldFactory returns the field constructor for a backend name. The gpu
// backend falls back to the CPU noise field when no adapter opens.
func FieldFactory(backend string, log *slog.Logger) glowtext.FieldFactory {
	if backend != "gpu" {
		return glowtext.NewField
	}
	return gpufield.NewFactory(gpufield.Config{Fallback: true, Logger: log})
}
