package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/theme"
)

func newTestView(t *testing.T, options ...glowtext.Option) (*view, *clock.FrameQueue) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	q := clock.NewFrameQueue()
	eff, err := glowtext.New(q, glowtext.Options{Text: "Glow", DevicePixelRatio: 1 / cellLogical}, options...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(eff.Unmount)

	svc := theme.NewService(theme.NewMemoryStore(), theme.NewStaticPreference(true), nil)
	if err := svc.Initialize(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Close)

	return &view{screen: screen, eff: eff, theme: svc, log: slog.New(slog.DiscardHandler)}, q
}

func TestViewFitsScreen(t *testing.T) {
	v, q := newTestView(t)
	if err := v.eff.Mount(); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if err := v.fit(); err != nil {
		t.Fatalf("fit() error = %v", err)
	}
	mask := v.eff.Mask()
	if mask.Width() > 80 || (mask.Height()+1)/2 > 23 {
		t.Fatalf("mask %dx%d does not fit 80x23 cells", mask.Width(), mask.Height())
	}
	if got, want := v.eff.Options().FontSize, glowtext.ResponsiveFontSize(80*cellLogical); got != want {
		t.Errorf("FontSize = %v, want %v", got, want)
	}

	q.Dispatch(0)
	v.draw()

	sim := v.screen.(tcell.SimulationScreen)
	cells, w, _ := sim.GetContents()
	blocks := 0
	for _, c := range cells {
		if len(c.Runes) > 0 && c.Runes[0] == halfBlock {
			blocks++
		}
	}
	if blocks != mask.Width()*((mask.Height()+1)/2) {
		t.Errorf("half blocks = %d, want %d", blocks, mask.Width()*((mask.Height()+1)/2))
	}
	if row := rowText(cells, w, 23); !strings.Contains(row, "dark theme") {
		t.Errorf("status line = %q, want the theme name", row)
	}
}

func TestViewDegradedShowsPlainText(t *testing.T) {
	v, q := newTestView(t, glowtext.WithFieldFactory(func(glowtext.Options) (field.Field, error) {
		return nil, errors.New("no field")
	}))
	if err := v.eff.Mount(); err == nil {
		t.Fatal("Mount() should fail")
	}
	q.Dispatch(0)
	v.draw()

	sim := v.screen.(tcell.SimulationScreen)
	cells, w, _ := sim.GetContents()
	if row := rowText(cells, w, 11); !strings.Contains(row, "Glow") {
		t.Errorf("middle row = %q, want the plain text", row)
	}
	if row := rowText(cells, w, 23); !strings.Contains(row, "plain text") {
		t.Errorf("status line = %q, want the degraded marker", row)
	}
}

func TestViewKeys(t *testing.T) {
	v, _ := newTestView(t)

	tests := []struct {
		name  string
		ev    tcell.Event
		keep  bool
		theme theme.Theme
	}{
		{"toggle", tcell.NewEventKey(tcell.KeyRune, 't', tcell.ModNone), true, theme.Light},
		{"toggle back", tcell.NewEventKey(tcell.KeyRune, 'T', tcell.ModNone), true, theme.Dark},
		{"other key", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), true, theme.Dark},
		{"quit", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, theme.Dark},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false, theme.Dark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.handleEvent(tt.ev); got != tt.keep {
				t.Errorf("handleEvent() = %v, want %v", got, tt.keep)
			}
			if got := v.theme.Effective(); got != tt.theme {
				t.Errorf("Effective() = %v, want %v", got, tt.theme)
			}
		})
	}
}

func rowText(cells []tcell.SimCell, width, row int) string {
	var b strings.Builder
	for _, c := range cells[row*width : (row+1)*width] {
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		}
	}
	return b.String()
}
