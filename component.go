package glowtext

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/metrics"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/text"
)

// AnimatedTextField draws Options.Text filled with an animated color field.
//
// The mask is rebuilt only when the text, style, blur or device pixel
// ratio change beyond text.DimensionTolerance. The field steps and renders
// every frame the clock delivers.
//
// AnimatedTextField is not safe for concurrent use. Hosts call its methods
// and pump the scheduler from one goroutine.
type AnimatedTextField struct {
	opts    Options
	palette paint.Palette

	log     *slog.Logger
	metrics *metrics.Collectors
	factory FieldFactory
	fixed   bool // field given by WithField, never recreated

	builder    *text.Builder
	clock      *clock.Clock
	compositor *Compositor

	field    field.Field
	mask     *paint.Mask
	dims     Dimensions
	fieldPix *paint.Pixmap
	frame    *paint.Pixmap

	mounted  bool
	degraded bool
	rendered bool
}

// New creates an unmounted component that schedules frames on s.
// It fails on empty text, an invalid color or an unknown strategy.
func New(s clock.Scheduler, opts Options, options ...Option) (*AnimatedTextField, error) {
	if s == nil {
		return nil, ErrNilScheduler
	}
	if opts.Text == "" {
		return nil, ErrEmptyText
	}
	if opts.Strategy != StrategyParticle && opts.Strategy != StrategyNoise {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, opts.Strategy)
	}
	palette, err := paint.ParsePalette(opts.Colors)
	if err != nil {
		return nil, fmt.Errorf("glowtext: colors: %w", err)
	}

	co := defaultOptions()
	for _, opt := range options {
		opt(&co)
	}
	if co.logger == nil {
		co.logger = Logger()
	}

	f := &AnimatedTextField{
		opts:       opts,
		palette:    palette,
		log:        co.logger,
		metrics:    co.metrics,
		factory:    co.factory,
		fixed:      co.fixedField,
		builder:    text.NewBuilder(co.registry),
		compositor: NewCompositor(opts.glow()),
	}
	f.clock = clock.New(s, f.renderFrame)
	f.clock.OnPhaseChange(func(running bool) {
		if running {
			f.metrics.ClockStarted()
		} else {
			f.metrics.ClockStopped()
		}
	})
	return f, nil
}

// Mount builds the mask and the field and starts the clock. Mounting a
// mounted component is a no-op.
//
// When the field or mask cannot be created the component enters degraded
// mode and Mount returns the cause. The component stays usable: PlainText
// still works and Unmount is still valid.
func (f *AnimatedTextField) Mount() error {
	if f.mounted {
		return nil
	}
	f.mounted = true
	f.degraded = false

	if err := f.build(); err != nil {
		return err
	}
	f.log.Info("glowtext: mounted",
		"text", f.opts.Text,
		"strategy", f.opts.Strategy.String(),
		"width", f.dims.Width,
		"height", f.dims.Height)
	f.clock.Start()
	return nil
}

// Unmount stops the clock and releases the field, mask and pixmaps.
// Unmount is idempotent.
func (f *AnimatedTextField) Unmount() {
	if !f.mounted {
		return
	}
	f.clock.Stop()
	f.clock.Reset()
	f.release()
	f.mounted = false
	f.degraded = false
	f.log.Info("glowtext: unmounted", "text", f.opts.Text)
}

// build (re)creates the mask and, when the mask changed, resets the field.
// Any failure degrades the component.
func (f *AnimatedTextField) build() error {
	mask, rebuilt, err := f.builder.Build(f.opts.Text, f.opts.Style(), f.opts.maskBlur(), f.opts.dpr())
	if err != nil {
		err = fmt.Errorf("glowtext: build mask: %w", err)
		f.degrade(metrics.ReasonMask, err)
		return err
	}
	if !rebuilt && f.field != nil {
		f.metrics.MaskSkipped()
		f.log.Debug("glowtext: mask rebuild skipped", "font", f.dims.Font)
		return nil
	}
	if rebuilt {
		f.metrics.MaskBuilt()
	}

	if f.field == nil {
		fld, err := f.newField()
		if err != nil {
			f.degrade(metrics.ReasonFieldInit, err)
			return err
		}
		f.field = fld
	}

	f.mask = mask
	f.dims = f.builder.Dimensions()
	f.compositor.Reset()
	f.resetField()
	f.log.Debug("glowtext: mask rebuilt",
		"font", f.dims.Font,
		"width", f.dims.Width,
		"height", f.dims.Height,
		"pixels", fmt.Sprintf("%dx%d", mask.Width(), mask.Height()))
	return nil
}

// newField runs the factory and closes a field it returned with an error.
func (f *AnimatedTextField) newField() (field.Field, error) {
	fld, err := f.factory(f.opts)
	if err != nil {
		if fld != nil {
			_ = fld.Close()
		}
		return nil, fmt.Errorf("glowtext: create field: %w", err)
	}
	if fld == nil {
		return nil, errNilField
	}
	return fld, nil
}

// resetField sizes the field and the pixmaps to the current mask.
func (f *AnimatedTextField) resetField() {
	lw, lh := f.mask.LogicalSize()
	f.field.Reset(lw, lh, f.palette)
	w, h := f.mask.Width(), f.mask.Height()
	if f.frame == nil || f.frame.Width() != w || f.frame.Height() != h {
		f.fieldPix = paint.NewPixmap(w, h)
		f.frame = paint.NewPixmap(w, h)
	}
	f.rendered = false
}

func (f *AnimatedTextField) closeField() {
	if f.field == nil {
		return
	}
	if err := f.field.Close(); err != nil {
		f.log.Warn("glowtext: close field", "err", err)
	}
	f.field = nil
}

func (f *AnimatedTextField) release() {
	f.closeField()
	f.mask = nil
	f.dims = Dimensions{}
	f.fieldPix = nil
	f.frame = nil
	f.rendered = false
	f.builder.Reset()
	f.compositor.Reset()
}

// degrade stops animation and releases everything but the options.
func (f *AnimatedTextField) degrade(reason string, err error) {
	f.clock.Stop()
	f.release()
	f.degraded = true
	f.metrics.Degraded(reason)
	f.log.Warn("glowtext: degraded to plain text", "reason", reason, "err", err)
}

// renderFrame is the clock's render step.
func (f *AnimatedTextField) renderFrame(fr clock.Frame) {
	// snapshot for this frame
	fld, mask, fieldPix, out := f.field, f.mask, f.fieldPix, f.frame
	if fld == nil || mask == nil {
		return
	}

	start := time.Now()
	fld.Step(fr)
	if err := fld.Render(fieldPix, mask.Scale()); err != nil {
		f.degrade(metrics.ReasonRender, fmt.Errorf("glowtext: render field: %w", err))
		return
	}
	if err := f.compositor.Composite(out, fieldPix, mask); err != nil {
		f.degrade(metrics.ReasonRender, err)
		return
	}
	f.rendered = true
	f.metrics.ObserveFrame(time.Since(start))
}

// rebuild applies an option change while mounted.
func (f *AnimatedTextField) rebuild() error {
	if !f.mounted || f.degraded {
		return nil
	}
	return f.build()
}

// SetText replaces the text and, while mounted, rebuilds the mask.
func (f *AnimatedTextField) SetText(s string) error {
	if s == "" {
		return ErrEmptyText
	}
	if s == f.opts.Text {
		return nil
	}
	f.opts.Text = s
	return f.rebuild()
}

// SetStyle replaces the font family, size, weight and slant.
func (f *AnimatedTextField) SetStyle(st text.Style) error {
	f.opts.FontFamily = st.Family
	f.opts.FontSize = st.Size
	f.opts.FontWeight = st.Weight
	f.opts.Italic = st.Italic
	return f.rebuild()
}

// SetBlur replaces the blur radius. While mounted the mask is rebuilt for
// the new padding and the field is recreated through the factory, so the
// particle blobs take the new blur. A field given by WithField is kept
// and only reset.
func (f *AnimatedTextField) SetBlur(blur float64) error {
	if blur == f.opts.Blur {
		return nil
	}
	f.opts.Blur = blur
	if !f.mounted || f.degraded {
		return nil
	}
	if !f.fixed {
		f.closeField()
	}
	return f.build()
}

// SetDevicePixelRatio replaces the device pixel ratio.
func (f *AnimatedTextField) SetDevicePixelRatio(dpr float64) error {
	if dpr == f.opts.DevicePixelRatio {
		return nil
	}
	f.opts.DevicePixelRatio = dpr
	return f.rebuild()
}

// SetPalette replaces the palette and reinitializes the field. An equal
// palette is a no-op.
func (f *AnimatedTextField) SetPalette(colors []string) error {
	p, err := paint.ParsePalette(colors)
	if err != nil {
		return fmt.Errorf("glowtext: colors: %w", err)
	}
	f.opts.Colors = append([]string(nil), colors...)
	if p.Equal(f.palette) {
		return nil
	}
	f.palette = p
	if f.field != nil && f.mask != nil {
		f.resetField()
	}
	return nil
}

// Frame returns the last composited frame: straight-alpha RGBA at raster
// size. It is nil while unmounted, degraded or before the first frame.
// The pixmap is reused; copy it to keep it across frames.
func (f *AnimatedTextField) Frame() *paint.Pixmap {
	if !f.rendered {
		return nil
	}
	return f.frame
}

// Mask returns the current text mask, or nil.
func (f *AnimatedTextField) Mask() *paint.Mask {
	return f.mask
}

// Dimensions returns the measurement the current mask was built for.
func (f *AnimatedTextField) Dimensions() Dimensions {
	return f.dims
}

// Field returns the current color field, or nil.
func (f *AnimatedTextField) Field() field.Field {
	return f.field
}

// Palette returns the current palette.
func (f *AnimatedTextField) Palette() paint.Palette {
	return f.palette
}

// Clock returns the frame clock.
func (f *AnimatedTextField) Clock() *clock.Clock {
	return f.clock
}

// Options returns the current options.
func (f *AnimatedTextField) Options() Options {
	o := f.opts
	o.Colors = append([]string(nil), f.opts.Colors...)
	return o
}

// PlainText returns the text for accessible or degraded display.
func (f *AnimatedTextField) PlainText() string {
	return f.opts.Text
}

// Mounted reports whether Mount has been called without Unmount.
func (f *AnimatedTextField) Mounted() bool {
	return f.mounted
}

// Degraded reports whether the component fell back to plain text.
func (f *AnimatedTextField) Degraded() bool {
	return f.degraded
}
