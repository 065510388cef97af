package theme

import "github.com/splashos/glowtext/paint"

var (
	lightBackdrop   = paint.MustHex("#FFFFFF")
	darkBackdrop    = paint.MustHex("#030712")
	lightForeground = paint.MustHex("#111827")
	darkForeground  = paint.MustHex("#F9FAFB")
)

// Backdrop returns the background color hosts draw behind the effect.
// System is treated as Light; resolve it with Service.Effective first.
func Backdrop(t Theme) paint.RGBA {
	if t == Dark {
		return darkBackdrop
	}
	return lightBackdrop
}

// Foreground returns the color for plain text on the backdrop, used when
// the effect is degraded.
func Foreground(t Theme) paint.RGBA {
	if t == Dark {
		return darkForeground
	}
	return lightForeground
}
