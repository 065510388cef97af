// Command glowrender renders the glowtext effect offline, as a numbered
// PNG sequence or an animated GIF, and can export the GPU noise shader.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/internal/host"
	"github.com/splashos/glowtext/theme"
)

// options holds the command-line flags.
type options struct {
	configPath string
	text       string
	strategy   string
	frames     int
	fps        int
	format     string
	output     string
	dpr        float64
	theme      string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file (defaults when empty)")
	flag.StringVar(&o.text, "text", "", "text to render (overrides effect.text)")
	flag.StringVar(&o.strategy, "strategy", "", "particle or noise (overrides effect.strategy)")
	flag.IntVar(&o.frames, "frames", 0, "number of frames (overrides render.frames)")
	flag.IntVar(&o.fps, "fps", 0, "frames per second (overrides render.fps)")
	flag.StringVar(&o.format, "format", "", "png or gif (overrides render.format)")
	flag.StringVar(&o.output, "out", "", "PNG directory or GIF file (overrides render.output)")
	flag.Float64Var(&o.dpr, "dpr", 0, "device pixel ratio (overrides effect.device_pixel_ratio)")
	flag.StringVar(&o.theme, "theme", "", "light, dark or system; stored like a toggle")
	shaderDir := flag.String("emit-shader", "", "write the noise shaders as WGSL and SPIR-V to this directory and exit")
	flag.Parse()

	if *shaderDir != "" {
		if err := emitShader(*shaderDir); err != nil {
			log.Fatalf("Failed to emit shader: %v", err)
		}
		log.Printf("Shader written to %s\n", *shaderDir)
		return
	}

	if err := run(o); err != nil {
		log.Fatalf("glowrender: %v", err)
	}
}

// run renders and saves the sequence. The theme store and the effect are
// released before it returns, on failure too.
func run(o options) error {
	env, err := host.Setup(o.configPath, os.Stderr)
	if err != nil {
		return fmt.Errorf("set up: %w", err)
	}
	defer func() {
		if err := env.Close(); err != nil {
			env.Log.Warn("glowrender: close", "err", err)
		}
	}()

	cfg := env.Holder.Get()
	overrideConfig(&cfg, o.text, o.strategy, o.frames, o.fps, o.format, o.output)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if o.theme != "" {
		t, err := theme.Parse(o.theme)
		if err != nil {
			return err
		}
		if err := env.Theme.SetTheme(t); err != nil {
			return err
		}
	}
	bg := theme.Backdrop(env.Theme.Effective())

	opts, err := host.EffectOptions(cfg, float64(cfg.Render.Width), o.dpr)
	if err != nil {
		return fmt.Errorf("invalid effect: %w", err)
	}

	q := clock.NewFrameQueue()
	eff, err := env.NewEffect(q, opts, nil)
	if err != nil {
		return fmt.Errorf("create effect: %w", err)
	}
	defer eff.Unmount()

	start := time.Now()
	step := time.Second / time.Duration(cfg.Render.FPS)
	seq, err := host.RenderFrames(eff, q, cfg.Render.Frames, step, bg)
	if err != nil {
		return fmt.Errorf("render %q: %w", eff.PlainText(), err)
	}

	switch cfg.Render.Format {
	case "gif":
		err = writeGIF(cfg.Render.Output, seq, cfg.Render.FPS)
	default:
		err = writePNGs(cfg.Render.Output, seq)
	}
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	d := eff.Dimensions()
	env.Log.Info("glowrender: done",
		"frames", len(seq),
		"text", eff.PlainText(),
		"output", cfg.Render.Output,
		"pixels", fmt.Sprintf("%dx%d", seq[0].Width(), seq[0].Height()),
		"logical", fmt.Sprintf("%.0fx%.0f", d.Width, d.Height),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// overrideConfig applies non-zero flags on top of the loaded config.
func overrideConfig(cfg *config.Config, text, strategy string, frames, fps int, format, output string) {
	if text != "" {
		cfg.Effect.Text = text
	}
	if strategy != "" {
		cfg.Effect.Strategy = strategy
	}
	if frames > 0 {
		cfg.Render.Frames = frames
	}
	if fps > 0 {
		cfg.Render.FPS = fps
	}
	if format != "" {
		cfg.Render.Format = format
	}
	if output != "" {
		cfg.Render.Output = output
	}
	if cfg.Render.Format == "gif" && cfg.Render.Output == config.Default().Render.Output {
		cfg.Render.Output += ".gif"
	}
}

