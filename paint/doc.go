// Package paint holds the raster primitives shared by the glowtext pipeline.
//
// # Buffers
//
//   - [Pixmap]: straight-alpha RGBA8 frame, the type hosts display
//   - [Mask]: 8-bit coverage raster with a device-pixel-ratio scale
//   - [Layer]: premultiplied float32 RGBA scratch buffer for blending and blur
//
// # Color
//
// [RGBA] stores float components in [0, 1]. [Palette] is the ordered list
// of gradient stops the color fields sample from; [ParsePalette] accepts
// CSS hex triplets and substitutes [DefaultPalette] for empty input.
//
// # Coordinates
//
// Brushes and fields work in logical units. A Mask or Pixmap covering a
// logical box of w by h at scale s has ceil(w*s) by ceil(h*s) pixels;
// pixel (px, py) samples the logical point ((px+0.5)/s, (py+0.5)/s).
package paint
