package glowtext

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/metrics"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/text"
)

var reimagined = []string{"#3B82F6", "#8B5CF6", "#EC4899", "#10B981", "#F59E0B"}

// sharedRegistry avoids parsing the bundled fonts in every test.
var sharedRegistry = text.NewRegistry()

func newField(t *testing.T, q *clock.FrameQueue, opts Options, options ...Option) *AnimatedTextField {
	t.Helper()
	options = append([]Option{WithRegistry(sharedRegistry)}, options...)
	f, err := New(q, opts, options...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return f
}

// pump delivers a baseline frame at 0 and then n frames step apart.
func pump(q *clock.FrameQueue, n int, step time.Duration) {
	q.Dispatch(0)
	for i := 1; i <= n; i++ {
		q.Dispatch(time.Duration(i) * step)
	}
}

func TestNewValidation(t *testing.T) {
	q := clock.NewFrameQueue()
	tests := []struct {
		name  string
		sched clock.Scheduler
		opts  Options
		want  error
	}{
		{"nil scheduler", nil, Options{Text: "x"}, ErrNilScheduler},
		{"empty text", q, Options{}, ErrEmptyText},
		{"bad color", q, Options{Text: "x", Colors: []string{"#12"}}, paint.ErrInvalidColor},
		{"bad strategy", q, Options{Text: "x", Strategy: Strategy(9)}, ErrUnknownStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.sched, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("New() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyParticle, false},
		{"particle", StrategyParticle, false},
		{" Noise ", StrategyNoise, false},
		{"plasma", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, %v", tt.in, got, err)
		}
		if err == nil && got.String() == "" {
			t.Errorf("%v has no name", got)
		}
	}
}

func TestReimaginedScenario(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{
		Text:          "Reimagined.",
		Colors:        reimagined,
		Speed:         0.5,
		Blur:          15,
		ParticleCount: 50,
		Seed:          1,
	})
	if err := f.Mount(); err != nil {
		t.Fatalf("Mount() = %v", err)
	}

	pump(q, 10, 16*time.Millisecond)

	st := f.Clock().State()
	if st.Phase != clock.Running {
		t.Fatalf("phase = %v, want Running", st.Phase)
	}
	if math.Abs(st.Elapsed-0.16) > 1e-9 {
		t.Errorf("elapsed = %v, want 0.16", st.Elapsed)
	}
	if st.Frames != 11 {
		t.Errorf("frames = %d, want 11", st.Frames)
	}

	frame, mask := f.Frame(), f.Mask()
	if frame == nil || mask == nil {
		t.Fatal("no frame or mask after rendering")
	}
	if frame.Width() != mask.Width() || frame.Height() != mask.Height() {
		t.Fatalf("frame %dx%d, mask %dx%d", frame.Width(), frame.Height(), mask.Width(), mask.Height())
	}

	// blur 15 pads by 30 on every side
	lw, lh := mask.LogicalSize()
	d := f.Dimensions()
	if lw != d.Width+60 || lh != d.Height+60 {
		t.Errorf("logical mask %vx%v, want measured %vx%v plus 60", lw, lh, d.Width, d.Height)
	}

	var inside, outside int
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			a := frame.GetPixel(x, y).A
			switch {
			case mask.At(x, y) == 0 && a != 0:
				outside++
			case mask.At(x, y) == 255 && a == 1:
				inside++
			}
		}
	}
	if outside != 0 {
		t.Errorf("%d pixels outside the glyphs are not transparent", outside)
	}
	if inside == 0 {
		t.Error("no opaque pixels inside the glyphs")
	}

	f.Unmount()
	if f.Clock().Running() {
		t.Error("clock still running after Unmount")
	}
	if q.Pending() != 0 {
		t.Errorf("Pending() = %d after Unmount, want 0", q.Pending())
	}
	if f.Frame() != nil || f.Mask() != nil {
		t.Error("Unmount should release the frame and mask")
	}
	f.Unmount()
}

func TestNoiseStrategyRenders(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Go", FontSize: 24, Strategy: StrategyNoise, Blur: -1})
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()

	if _, ok := f.Field().(*field.NoiseField); !ok {
		t.Fatalf("Field() = %T, want *field.NoiseField", f.Field())
	}
	if f.Frame() != nil {
		t.Error("Frame() should be nil before the first frame")
	}
	pump(q, 2, 16*time.Millisecond)
	if f.Frame() == nil {
		t.Fatal("no frame after dispatch")
	}
	if f.Mask().Coverage() == 0 {
		t.Error("empty mask for \"Go\"")
	}
}

func TestDevicePixelRatioScalesMask(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Hi", FontSize: 20, DevicePixelRatio: 2})
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()

	m := f.Mask()
	lw, lh := m.LogicalSize()
	if m.Scale() != 2 ||
		m.Width() != paint.RasterSize(lw, 2) || m.Height() != paint.RasterSize(lh, 2) {
		t.Errorf("mask %dx%d scale %v for logical %vx%v", m.Width(), m.Height(), m.Scale(), lw, lh)
	}

	if err := f.SetDevicePixelRatio(1); err != nil {
		t.Fatal(err)
	}
	if f.Mask().Scale() != 1 {
		t.Errorf("scale after SetDevicePixelRatio(1) = %v", f.Mask().Scale())
	}
}

func TestRebuildAndSkipMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Hello", FontSize: 20}, WithMetrics(m))

	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()
	if got := testutil.ToFloat64(m.ClockRunning); got != 1 {
		t.Errorf("clock_running = %v, want 1", got)
	}

	first := f.Mask()
	if err := f.SetStyle(text.Style{Size: 20.1}); err != nil {
		t.Fatal(err)
	}
	if f.Mask() == first {
		t.Error("a new font descriptor should rebuild the mask")
	}

	second := f.Mask()
	if err := f.SetBlur(0); err != nil {
		t.Fatal(err)
	}
	if err := f.SetStyle(text.Style{Size: 20.1}); err != nil {
		t.Fatal(err)
	}
	if f.Mask() != second {
		t.Error("unchanged inputs should keep the mask")
	}

	if err := f.SetText("Hello!"); err != nil {
		t.Fatal(err)
	}
	if f.Mask() == second {
		t.Error("new text should rebuild the mask")
	}
	if err := f.SetText(""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("SetText(\"\") = %v, want ErrEmptyText", err)
	}

	if got := testutil.ToFloat64(m.MaskBuildsTotal); got != 3 {
		t.Errorf("mask builds = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.MaskSkipsTotal); got != 1 {
		t.Errorf("mask skips = %v, want 1", got)
	}

	pump(q, 3, 16*time.Millisecond)
	if got := testutil.ToFloat64(m.FramesTotal); got != 4 {
		t.Errorf("frames = %v, want 4", got)
	}
	f.Unmount()
	if got := testutil.ToFloat64(m.ClockRunning); got != 0 {
		t.Errorf("clock_running = %v after Unmount, want 0", got)
	}
}

// stubField is a Field whose Render can be made to fail.
type stubField struct {
	resets    int
	palette   paint.Palette
	renderErr error
	closed    int
}

func (s *stubField) Reset(_, _ float64, p paint.Palette) { s.resets++; s.palette = p }
func (s *stubField) Step(clock.Frame)                     {}
func (s *stubField) Sample(_, _ float64) paint.RGBA       { return paint.White }
func (s *stubField) Close() error                         { s.closed++; return nil }

func (s *stubField) Render(dst *paint.Pixmap, _ float64) error {
	if s.renderErr != nil {
		return s.renderErr
	}
	dst.Clear(paint.White)
	return nil
}

func TestSetPaletteResetsField(t *testing.T) {
	stub := &stubField{}
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "a", FontSize: 12}, WithField(stub))
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()
	if stub.resets != 1 {
		t.Fatalf("resets after Mount = %d, want 1", stub.resets)
	}

	if err := f.SetPalette(nil); err != nil {
		t.Fatal(err)
	}
	if stub.resets != 1 {
		t.Error("setting an equal palette should not reset the field")
	}

	if err := f.SetPalette([]string{"#F00"}); err != nil {
		t.Fatal(err)
	}
	if stub.resets != 2 || stub.palette.Len() != 1 {
		t.Errorf("resets = %d, palette len = %d", stub.resets, stub.palette.Len())
	}

	if err := f.SetPalette([]string{"nope"}); !errors.Is(err, paint.ErrInvalidColor) {
		t.Errorf("SetPalette(invalid) = %v", err)
	}
}

func TestSetBlurRecreatesField(t *testing.T) {
	var (
		blurs  []float64
		fields []*stubField
	)
	factory := func(o Options) (field.Field, error) {
		blurs = append(blurs, o.Blur)
		s := &stubField{}
		fields = append(fields, s)
		return s, nil
	}
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Go", FontSize: 16, Blur: 5}, WithFieldFactory(factory))

	if err := f.SetBlur(8); err != nil {
		t.Fatal(err)
	}
	if len(blurs) != 0 {
		t.Fatalf("factory called %d times before Mount", len(blurs))
	}

	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()
	padded := f.Mask().Width()

	if err := f.SetBlur(30); err != nil {
		t.Fatal(err)
	}
	if want := []float64{8, 30}; !slices.Equal(blurs, want) {
		t.Fatalf("factory blurs = %v, want %v", blurs, want)
	}
	if fields[0].closed != 1 {
		t.Errorf("old field closed %d times, want 1", fields[0].closed)
	}
	if fields[1].resets != 1 || fields[1].closed != 0 {
		t.Errorf("new field resets = %d, closed = %d", fields[1].resets, fields[1].closed)
	}
	if f.Mask().Width() <= padded {
		t.Errorf("mask width = %d after SetBlur(30), want more than %d", f.Mask().Width(), padded)
	}

	if err := f.SetBlur(30); err != nil {
		t.Fatal(err)
	}
	if len(blurs) != 2 {
		t.Errorf("an unchanged blur called the factory again (%d calls)", len(blurs))
	}

	pump(q, 2, 16*time.Millisecond)
	if f.Frame() == nil {
		t.Error("no frame from the recreated field")
	}
}

func TestSetBlurKeepsGivenField(t *testing.T) {
	stub := &stubField{}
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Go", FontSize: 16, Blur: 5}, WithField(stub))
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()

	if err := f.SetBlur(30); err != nil {
		t.Fatal(err)
	}
	if stub.closed != 0 {
		t.Errorf("given field closed %d times, want 0", stub.closed)
	}
	if stub.resets != 2 {
		t.Errorf("resets = %d, want 2", stub.resets)
	}
	if f.Field() != stub {
		t.Error("Field() no longer returns the given field")
	}
}

func TestDegradedOnFieldInit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	boom := errors.New("no adapter")
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "Plain", FontSize: 12},
		WithMetrics(m),
		WithFieldFactory(func(Options) (field.Field, error) { return nil, boom }))

	if err := f.Mount(); !errors.Is(err, boom) {
		t.Fatalf("Mount() = %v, want %v", err, boom)
	}
	if !f.Degraded() {
		t.Fatal("Degraded() = false")
	}
	if f.Clock().Running() || q.Pending() != 0 {
		t.Error("degraded component must not schedule frames")
	}
	if f.Frame() != nil || f.Mask() != nil {
		t.Error("degraded component must release its buffers")
	}
	if f.PlainText() != "Plain" {
		t.Errorf("PlainText() = %q", f.PlainText())
	}
	if got := testutil.ToFloat64(m.DegradedTotal.WithLabelValues(metrics.ReasonFieldInit)); got != 1 {
		t.Errorf("degraded{field_init} = %v, want 1", got)
	}

	f.Unmount()
	if f.Degraded() || f.Mounted() {
		t.Error("Unmount should clear degraded mode")
	}
}

func TestDegradedOnRenderError(t *testing.T) {
	stub := &stubField{renderErr: errors.New("device lost")}
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "a", FontSize: 12}, WithField(stub))
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}

	q.Dispatch(0)

	if !f.Degraded() {
		t.Fatal("render failure should degrade the component")
	}
	if f.Clock().Running() || q.Pending() != 0 {
		t.Error("clock should stop on render failure")
	}
	if stub.closed != 1 {
		t.Errorf("field closed %d times, want 1", stub.closed)
	}
	if err := f.SetText("b"); err != nil {
		t.Errorf("SetText while degraded = %v", err)
	}
	if f.PlainText() != "b" {
		t.Errorf("PlainText() = %q, want b", f.PlainText())
	}
}

func TestRemountStartsFresh(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newField(t, q, Options{Text: "x", FontSize: 12, Strategy: StrategyNoise})

	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	if q.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1 after double Mount", q.Pending())
	}
	pump(q, 5, 20*time.Millisecond)
	f.Unmount()

	if err := f.Mount(); err != nil {
		t.Fatal(err)
	}
	defer f.Unmount()
	if f.Clock().Elapsed() != 0 {
		t.Errorf("Elapsed() = %v after remount, want 0", f.Clock().Elapsed())
	}
	pump(q, 1, 20*time.Millisecond)
	if f.Frame() == nil {
		t.Error("no frame after remount")
	}
}

func TestResponsiveFontSize(t *testing.T) {
	tests := []struct{ width, want float64 }{
		{320, 48},
		{800, 64},
		{1200, 96},
		{4000, 96},
	}
	for _, tt := range tests {
		if got := ResponsiveFontSize(tt.width); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ResponsiveFontSize(%v) = %v, want %v", tt.width, got, tt.want)
		}
	}
}
