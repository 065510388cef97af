// Command glowview shows the glowtext effect in a desktop window.
//
// Controls:
//
//	T         - Toggle light/dark theme (persisted by the theme store)
//	Q/Escape  - Quit
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/internal/host"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults when empty)")
		textFlag   = flag.String("text", "", "text to show (overrides effect.text)")
		width      = flag.Int("width", 960, "window width")
		height     = flag.Int("height", 400, "window height")
	)
	flag.Parse()

	env, err := host.Setup(*configPath, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}
	defer func() { _ = env.Close() }()

	cfg := env.Holder.Get()
	if *textFlag != "" {
		cfg.Effect.Text = *textFlag
	}
	scale := ebiten.Monitor().DeviceScaleFactor()
	opts, err := host.EffectOptions(cfg, float64(*width), scale)
	if err != nil {
		log.Fatalf("Invalid effect: %v", err)
	}

	q := clock.NewFrameQueue()
	eff, err := env.NewEffect(q, opts, nil)
	if err != nil {
		log.Fatalf("Failed to create effect: %v", err)
	}
	defer eff.Unmount()
	if err := eff.Mount(); err != nil {
		env.Log.Warn("glowview: effect unavailable", "err", err)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle(eff.PlainText())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := newGame(eff, q, env.Theme, env.Log)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("Game error: %v", err)
	}
}
