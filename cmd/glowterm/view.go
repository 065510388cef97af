package main

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/theme"
)

// cellLogical is the number of logical pixels one terminal column stands
// for when deriving the responsive font size.
const cellLogical = 8.0

// halfBlock draws two vertically stacked pixels per cell: the foreground
// is the top pixel, the background the bottom one.
const halfBlock = '▀'

// view draws an effect into a tcell screen.
type view struct {
	screen tcell.Screen
	eff    *glowtext.AnimatedTextField
	theme  *theme.Service
	log    *slog.Logger
}

// fit resizes the effect so its mask fills the screen. The font size
// follows the terminal width; the device pixel ratio maps logical pixels
// onto half-block cells.
func (v *view) fit() error {
	cols, rows := v.screen.Size()
	rows-- // status line
	if cols <= 0 || rows <= 0 {
		return nil
	}

	st := v.eff.Options().Style()
	st.Size = glowtext.ResponsiveFontSize(float64(cols) * cellLogical)
	if err := v.eff.SetStyle(st); err != nil {
		return err
	}
	mask := v.eff.Mask()
	if mask == nil {
		return nil
	}
	lw, lh := mask.LogicalSize()
	dpr := min(float64(cols)/lw, float64(2*rows)/lh, 1) * 0.98
	return v.eff.SetDevicePixelRatio(dpr)
}

// draw paints one screen: the frame centered on the theme backdrop, or
// the plain text when there is no frame, and a status line.
func (v *view) draw() {
	th := v.theme.Effective()
	bg := theme.Backdrop(th)
	base := tcell.StyleDefault.
		Background(cellColor(bg)).
		Foreground(cellColor(theme.Foreground(th)))

	v.screen.SetStyle(base)
	v.screen.Clear()
	cols, rows := v.screen.Size()

	if fr := v.eff.Frame(); fr != nil {
		v.drawFrame(fr.Flatten(bg), bg, cols, rows-1, base)
	} else {
		s := v.eff.PlainText()
		v.drawString((cols-len([]rune(s)))/2, (rows-1)/2, s, base.Bold(true))
	}

	status := fmt.Sprintf(" %s theme · t toggle · q quit ", th)
	if v.eff.Degraded() {
		status += "· plain text "
	}
	v.drawString(0, rows-1, status, base.Dim(true))
	v.screen.Show()
}

func (v *view) drawFrame(flat *paint.Pixmap, bg paint.RGBA, cols, rows int, base tcell.Style) {
	w, h := flat.Width(), flat.Height()
	ch := (h + 1) / 2
	ox, oy := (cols-w)/2, (rows-ch)/2
	data := flat.Data()
	bottomBg := cellColor(bg)

	for y := range ch {
		for x := range w {
			top := pixelColor(data, (2*y*w+x)*4)
			bottom := bottomBg
			if 2*y+1 < h {
				bottom = pixelColor(data, ((2*y+1)*w+x)*4)
			}
			v.screen.SetContent(ox+x, oy+y, halfBlock, nil, base.Foreground(top).Background(bottom))
		}
	}
}

func (v *view) drawString(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

// handleEvent reacts to keys and resizes. It returns false to quit.
func (v *view) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 't' || ev.Rune() == 'T'):
			if err := v.theme.Toggle(); err != nil {
				v.log.Warn("glowterm: toggle theme", "err", err)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
		if err := v.fit(); err != nil {
			v.log.Warn("glowterm: resize", "err", err)
		}
	}
	return true
}

func cellColor(c paint.RGBA) tcell.Color {
	return tcell.FromImageColor(c.Color())
}

func pixelColor(data []uint8, i int) tcell.Color {
	return tcell.NewRGBColor(int32(data[i]), int32(data[i+1]), int32(data[i+2]))
}
