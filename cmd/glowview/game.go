package main

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/theme"
)

// game implements ebiten.Game around one effect. The effect is driven
// from Update, so it stays on ebiten's game goroutine.
type game struct {
	eff   *glowtext.AnimatedTextField
	q     *clock.FrameQueue
	theme *theme.Service
	log   *slog.Logger
	start time.Time

	// window size in logical pixels and the scale, as last seen by Layout
	outW, outH int
	scale      float64
	fitted     [2]int

	img *ebiten.Image
	buf []byte
}

func newGame(eff *glowtext.AnimatedTextField, q *clock.FrameQueue, svc *theme.Service, log *slog.Logger) *game {
	return &game{eff: eff, q: q, theme: svc, log: log, start: time.Now(), scale: 1}
}

// Update handles input, refits the effect after a resize and pumps the
// frame queue.
func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		if err := g.theme.Toggle(); err != nil {
			g.log.Warn("glowview: toggle theme", "err", err)
		}
	}

	if size := [2]int{g.outW, g.outH}; size != g.fitted && g.outW > 0 {
		g.fitted = size
		st := g.eff.Options().Style()
		st.Size = glowtext.ResponsiveFontSize(float64(g.outW))
		if err := g.eff.SetStyle(st); err != nil {
			g.log.Warn("glowview: resize", "err", err)
		}
		if err := g.eff.SetDevicePixelRatio(g.scale); err != nil {
			g.log.Warn("glowview: device pixel ratio", "err", err)
		}
	}

	g.q.Dispatch(time.Since(g.start))
	return nil
}

// Draw fills the theme backdrop and draws the latest frame centered.
func (g *game) Draw(screen *ebiten.Image) {
	th := g.theme.Effective()
	screen.Fill(theme.Backdrop(th).Color())

	fr := g.eff.Frame()
	if fr == nil {
		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		ebitenutil.DebugPrintAt(screen, g.eff.PlainText(), w/2-len(g.eff.PlainText())*3, h/2-8)
		return
	}

	if g.img == nil || g.img.Bounds().Dx() != fr.Width() || g.img.Bounds().Dy() != fr.Height() {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(fr.Width(), fr.Height())
	}
	g.buf = fr.Premultiplied(g.buf)
	g.img.WritePixels(g.buf)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(sw-fr.Width())/2, float64(sh-fr.Height())/2)
	screen.DrawImage(g.img, op)
}

// Layout renders at device resolution so the mask stays sharp on HiDPI
// monitors.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outW, g.outH = outsideWidth, outsideHeight
	g.scale = ebiten.Monitor().DeviceScaleFactor()
	return int(float64(outsideWidth) * g.scale), int(float64(outsideHeight) * g.scale)
}
