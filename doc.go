// Package glowtext renders animated gradient text.
//
// # Overview
//
// A string is rasterized once into an alpha mask (package text). Every
// frame a color field (package field) paints an evolving background, and
// the Compositor keeps that color only where the mask has coverage. A
// frame clock (package clock) supplies elapsed time and owns start and
// stop.
//
// glowtext is host-agnostic: it never opens windows or talks to a GPU.
// Hosts pump a clock.Scheduler and display the pixmap returned by
// AnimatedTextField.Frame. See cmd/ for a window, a terminal, an offline
// renderer and an HTTP preview.
//
// # Quick Start
//
//	q := clock.NewFrameQueue()
//	f, err := glowtext.New(q, glowtext.Options{
//	    Text:   "Reimagined.",
//	    Colors: []string{"#3B82F6", "#8B5CF6", "#EC4899", "#10B981", "#F59E0B"},
//	    Speed:  0.5,
//	    Blur:   15,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f.Mount()
//	defer f.Unmount()
//
//	q.Run(ctx, time.Second/60) // or call q.Dispatch from your own loop
//
// # Strategies
//
// StrategyParticle drifts soft radial blobs over a moving linear
// gradient. StrategyNoise maps domain-warped fractal noise through the
// palette; package shader carries the same noise as WGSL for GPU hosts.
// Custom fields are injected with WithField or WithFieldFactory.
//
// # Degraded mode
//
// When the field cannot be created or a frame fails to render, the
// component stops its clock, releases its buffers and reports Degraded.
// PlainText still returns the string so hosts can show it unstyled.
//
// # Logging
//
// glowtext is silent by default. Call SetLogger or pass WithLogger to
// see mask rebuilds, lifecycle events and degraded-mode warnings.
package glowtext
