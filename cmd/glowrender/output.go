package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/renameio/v2"
	"golang.org/x/sync/errgroup"

	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/shader"
)

// writePNGs encodes frames in parallel into dir as frame_0000.png, ...
// Each file is replaced atomically.
func writePNGs(dir string, frames []*paint.Pixmap) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, fr := range frames {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := fr.EncodePNG(&buf); err != nil {
				return fmt.Errorf("encode frame %d: %w", i, err)
			}
			path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
			if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// writeGIF encodes frames as a looping GIF at fps. Frames are dithered
// to the Plan 9 palette.
func writeGIF(path string, frames []*paint.Pixmap, fps int) error {
	anim := &gif.GIF{
		Image: make([]*image.Paletted, len(frames)),
		Delay: make([]int, len(frames)),
	}
	delay := max(100/fps, 2)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, fr := range frames {
		g.Go(func() error {
			src := fr.ToImage()
			dst := image.NewPaletted(src.Bounds(), palette.Plan9)
			draw.FloydSteinberg.Draw(dst, dst.Bounds(), src, image.Point{})
			anim.Image[i] = dst
			anim.Delay[i] = delay
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending %s: %w", path, err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := gif.EncodeAll(pending, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// emitShader writes the WGSL programs and their SPIR-V compilations into
// dir.
func emitShader(dir string) error {
	field, err := shader.CompileNoiseField()
	if err != nil {
		return err
	}
	compute, err := shader.CompileNoiseCompute()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	files := map[string][]byte{
		"noise_field.wgsl":   []byte(shader.NoiseFieldWGSL()),
		"noise_field.spv":    field,
		"noise_compute.wgsl": []byte(shader.NoiseComputeWGSL()),
		"noise_compute.spv":  compute,
	}
	for name, data := range files {
		if err := renameio.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
