// Command glowterm plays the glowtext effect in a truecolor terminal.
//
// Each cell shows two pixels with an upper half block. Press t to toggle
// the theme, q or Esc to quit. The config file is watched and text or
// palette changes apply without a restart.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/internal/host"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults when empty)")
		textFlag   = flag.String("text", "", "text to play (overrides effect.text)")
		fps        = flag.Int("fps", 30, "frames per second")
	)
	flag.Parse()

	if err := run(*configPath, *textFlag, *fps); err != nil {
		fmt.Fprintf(os.Stderr, "glowterm: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, textFlag string, fps int) error {
	logFile, err := os.CreateTemp("", "glowterm-*.log")
	if err != nil {
		return err
	}
	defer logFile.Close()

	env, err := host.Setup(configPath, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	cfg := env.Holder.Get()
	if textFlag != "" {
		cfg.Effect.Text = textFlag
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	cols, _ := screen.Size()
	opts, err := host.EffectOptions(cfg, float64(cols)*cellLogical, 1/cellLogical)
	if err != nil {
		return err
	}
	q := clock.NewFrameQueue()
	eff, err := env.NewEffect(q, opts, nil)
	if err != nil {
		return err
	}
	defer eff.Unmount()

	v := &view{screen: screen, eff: eff, theme: env.Theme, log: env.Log}
	if err := eff.Mount(); err != nil {
		env.Log.Warn("glowterm: effect unavailable", "err", err)
	} else if err := v.fit(); err != nil {
		env.Log.Warn("glowterm: fit", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan config.Config, 1)
	if env.Holder.Path() != "" {
		cancelSub := env.Holder.Subscribe(func(c config.Config) {
			select {
			case reloads <- c:
			default:
			}
		})
		defer cancelSub()
		go func() {
			if err := env.Holder.Watch(ctx); err != nil && ctx.Err() == nil {
				env.Log.Warn("glowterm: watch config", "err", err)
			}
		}()
	}

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return nil
			}
		case c := <-reloads:
			if textFlag == "" {
				if err := eff.SetText(c.Effect.Text); err != nil {
					env.Log.Warn("glowterm: reload text", "err", err)
				}
			}
			if err := eff.SetPalette(c.Effect.Colors); err != nil {
				env.Log.Warn("glowterm: reload colors", "err", err)
			}
			if err := v.fit(); err != nil {
				env.Log.Warn("glowterm: fit", "err", err)
			}
		case now := <-ticker.C:
			q.Dispatch(now.Sub(start))
			v.draw()
		}
	}
}
