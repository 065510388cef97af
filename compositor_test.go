package glowtext

import (
	"errors"
	"testing"

	"github.com/splashos/glowtext/paint"
)

// stripeMask covers the left half of a w x h mask fully.
func stripeMask(w, h int) *paint.Mask {
	m := paint.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			m.Set(x, y, 255)
		}
	}
	return m
}

func solidPixmap(w, h int, c paint.RGBA) *paint.Pixmap {
	p := paint.NewPixmap(w, h)
	p.Clear(c)
	return p
}

func TestCompositeStencil(t *testing.T) {
	c := paint.MustHex("#8B5CF6")
	src := solidPixmap(20, 10, c)
	mask := stripeMask(20, 10)
	mask.Set(15, 5, 128)
	dst := solidPixmap(20, 10, paint.White)

	if err := Composite(dst, src, mask, -1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		x, y int
		want paint.RGBA
	}{
		{"covered", 2, 2, c},
		{"uncovered", 18, 2, paint.Transparent},
		{"uncovered corner", 19, 9, paint.Transparent},
		{"partial", 15, 5, c.WithAlpha(128.0 / 255)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dst.GetPixel(tt.x, tt.y); !got.Near(tt.want, 1e-9) {
				t.Errorf("pixel (%d,%d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestCompositeGlowBrightensInside(t *testing.T) {
	c := paint.MustHex("#3B82F6")
	src := solidPixmap(40, 20, c)
	mask := stripeMask(40, 20)

	plain := paint.NewPixmap(40, 20)
	if err := Composite(plain, src, mask, 0); err != nil {
		t.Fatal(err)
	}
	glow := paint.NewPixmap(40, 20)
	if err := Composite(glow, src, mask, 0.5); err != nil {
		t.Fatal(err)
	}

	p, g := plain.GetPixel(5, 10), glow.GetPixel(5, 10)
	if g.R <= p.R || g.G <= p.G {
		t.Errorf("glow pixel %v should be lighter than %v", g.Hex(), p.Hex())
	}
	if g.A != p.A {
		t.Errorf("glow changed alpha: %v vs %v", g.A, p.A)
	}
	if glow.GetPixel(35, 10) != paint.Transparent {
		t.Error("glow must not leak outside the mask")
	}
}

func TestCompositorCachesHalo(t *testing.T) {
	mask := stripeMask(16, 8)
	c := NewCompositor(0.3)
	src := solidPixmap(16, 8, paint.Black)
	dst := paint.NewPixmap(16, 8)

	if err := c.Composite(dst, src, mask); err != nil {
		t.Fatal(err)
	}
	halo := c.halo
	if err := c.Composite(dst, src, mask); err != nil {
		t.Fatal(err)
	}
	if c.halo != halo {
		t.Error("halo recomputed for the same mask")
	}

	other := stripeMask(16, 8)
	if err := c.Composite(dst, src, other); err != nil {
		t.Fatal(err)
	}
	if c.halo == halo {
		t.Error("halo not recomputed for a new mask")
	}
}

func TestCompositeSizeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		dst, src  *paint.Pixmap
		mask      *paint.Mask
	}{
		{"field", paint.NewPixmap(4, 4), paint.NewPixmap(5, 4), paint.NewMask(4, 4)},
		{"mask", paint.NewPixmap(4, 4), paint.NewPixmap(4, 4), paint.NewMask(4, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Composite(tt.dst, tt.src, tt.mask, 0)
			if !errors.Is(err, paint.ErrSizeMismatch) {
				t.Errorf("Composite() = %v, want ErrSizeMismatch", err)
			}
		})
	}
}

func TestNewCompositorClampsGlow(t *testing.T) {
	for _, tt := range []struct{ in, want float64 }{{-1, 0}, {0, 0}, {0.18, 0.18}, {3, 1}} {
		if got := NewCompositor(tt.in).Glow(); got != tt.want {
			t.Errorf("NewCompositor(%v).Glow() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
