package text

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/splashos/glowtext/paint"
)

// Padding returns the margin added on every side of the measured box so
// a blur of the given radius is not clipped: max(2, ceil(blur*2)).
func Padding(blur float64) float64 {
	if blur <= 0 || math.IsNaN(blur) {
		return 2
	}
	return math.Max(2, math.Ceil(blur*2))
}

// Rasterize renders s into an alpha mask covering the padded box
// (Width+2pad) x (Height+2pad) at dpr raster pixels per logical unit.
// The text is centered in the box. A dpr <= 0 is treated as 1.
func (r *Registry) Rasterize(s string, st Style, blur, dpr float64) (*paint.Mask, error) {
	rn, err := r.shape(s, st)
	if err != nil {
		return nil, err
	}
	return rn.rasterize(blur, dpr)
}

func (rn *run) rasterize(blur, dpr float64) (*paint.Mask, error) {
	if dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		dpr = 1
	}
	m := rn.metrics()
	pad := Padding(blur)
	mask := paint.NewScaledMask(m.Width+2*pad, m.Height+2*pad, dpr)

	w, h := mask.Width(), mask.Height()
	ras := vector.NewRasterizer(w, h)
	ras.DrawOp = draw.Src

	originX := pad + (m.Width-rn.advance)/2
	baseline := pad + m.Height/2 + (m.Ascent-m.Descent)/2
	ppem := floatToFixed(rn.style.Size * dpr)

	var buf sfnt.Buffer
	for _, g := range rn.glyphs {
		segments, err := rn.src.outlines.LoadGlyph(&buf, g.id, ppem, nil)
		if err != nil {
			if errors.Is(err, sfnt.ErrColoredGlyph) || errors.Is(err, sfnt.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("text: load glyph %d: %w", g.id, err)
		}
		ox := float32((originX + g.x) * dpr)
		oy := float32((baseline - g.y) * dpr)
		appendOutline(ras, segments, ox, oy)
	}

	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	ras.Draw(alpha, alpha.Bounds(), image.Opaque, image.Point{})
	copy(mask.Data(), alpha.Pix)
	return mask, nil
}

// appendOutline adds the glyph contours, offset to the pen position, to
// the rasterizer's path. Every contour is closed.
func appendOutline(ras *vector.Rasterizer, segments sfnt.Segments, ox, oy float32) {
	pt := func(p fixed.Point26_6) (float32, float32) {
		return ox + float32(p.X)/64, oy + float32(p.Y)/64
	}
	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				ras.ClosePath()
			}
			ras.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			ras.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			ras.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			dx, dy := pt(seg.Args[2])
			ras.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		ras.ClosePath()
	}
}
