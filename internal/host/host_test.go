package host

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/field"
	"github.com/splashos/glowtext/gpufield"
	"github.com/splashos/glowtext/paint"
	"github.com/splashos/glowtext/text"
	"github.com/splashos/glowtext/theme"
)

func TestSetupDefaults(t *testing.T) {
	orig := glowtext.Logger()
	t.Cleanup(func() { glowtext.SetLogger(orig) })

	env, err := Setup("", io.Discard)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "Reimagined.", env.Holder.Get().Effect.Text)
	assert.Same(t, env.Log, glowtext.Logger())
	assert.Contains(t, []theme.Theme{theme.Light, theme.Dark}, env.Theme.Effective())
}

func TestSetupAppliesDefaultTheme(t *testing.T) {
	orig := glowtext.Logger()
	t.Cleanup(func() { glowtext.SetLogger(orig) })

	path := filepath.Join(t.TempDir(), "glowtext.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme:\n  default: dark\n"), 0o600))

	env, err := Setup(path, io.Discard)
	require.NoError(t, err)
	defer env.Close()
	assert.Equal(t, theme.Dark, env.Theme.Current())
	assert.True(t, env.Theme.IsDark())
}

func TestRegisterFonts(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "brand.ttf")
	require.NoError(t, os.WriteFile(good, gobold.TTF, 0o600))

	reg := text.NewRegistry()
	require.NoError(t, RegisterFonts(reg, []config.FontFile{{Family: "Brand", Path: good, Weight: 700}}))
	assert.Contains(t, reg.Families(), "Brand")
	src, err := reg.Lookup("Brand", 700)
	require.NoError(t, err)
	assert.Equal(t, 700, src.Weight())

	err = RegisterFonts(reg, []config.FontFile{
		{Family: "Missing", Path: filepath.Join(dir, "nope.ttf")},
		{Family: "Junk", Path: good + ".txt"},
	})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NotContains(t, reg.Families(), "Missing")
}

func TestEffectOptions(t *testing.T) {
	cfg := config.Default()

	opts, err := EffectOptions(cfg, 800, 2)
	require.NoError(t, err)
	assert.InDelta(t, 64, opts.FontSize, 1e-9)
	assert.Equal(t, 2.0, opts.DevicePixelRatio)

	cfg.Effect.FontSize = 30
	opts, err = EffectOptions(cfg, 800, 0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, opts.FontSize)
	assert.Equal(t, 0.0, opts.DevicePixelRatio)
}

func TestNewEffect(t *testing.T) {
	orig := glowtext.Logger()
	t.Cleanup(func() { glowtext.SetLogger(orig) })

	env, err := Setup("", io.Discard)
	require.NoError(t, err)
	defer env.Close()

	opts, err := EffectOptions(env.Holder.Get(), 320, 1)
	require.NoError(t, err)
	f, err := env.NewEffect(clock.NewFrameQueue(), opts, nil)
	require.NoError(t, err)
	require.NoError(t, f.Mount())
	f.Unmount()
}

func TestFieldFactory(t *testing.T) {
	log := glowtext.Logger()
	tests := []struct {
		name     string
		backend  string
		strategy glowtext.Strategy
		check    func(t *testing.T, fld field.Field)
	}{
		{"cpu noise", "cpu", glowtext.StrategyNoise, func(t *testing.T, fld field.Field) {
			assert.IsType(t, &field.NoiseField{}, fld)
		}},
		{"gpu particle stays on cpu", "gpu", glowtext.StrategyParticle, func(t *testing.T, fld field.Field) {
			assert.IsType(t, &field.ParticleField{}, fld)
		}},
		{"gpu noise runs on a device or falls back", "gpu", glowtext.StrategyNoise, func(t *testing.T, fld field.Field) {
			switch fld.(type) {
			case *gpufield.Field, *field.NoiseField:
			default:
				t.Errorf("unexpected field %T", fld)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fld, err := FieldFactory(tt.backend, log)(glowtext.Options{Text: "Go", Strategy: tt.strategy})
			require.NoError(t, err)
			defer func() { _ = fld.Close() }()
			tt.check(t, fld)
		})
	}
}

func newTestEffect(t *testing.T, q *clock.FrameQueue, options ...glowtext.Option) *glowtext.AnimatedTextField {
	t.Helper()
	opts, err := EffectOptions(config.Default(), 320, 1)
	require.NoError(t, err)
	opts.Text = "Hi"
	f, err := glowtext.New(q, opts, options...)
	require.NoError(t, err)
	t.Cleanup(f.Unmount)
	return f
}

func TestRenderFrames(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newTestEffect(t, q)
	bg := theme.Backdrop(theme.Dark)

	frames, err := RenderFrames(f, q, 4, time.Second/30, bg)
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.InDelta(t, 3.0/30, f.Clock().Elapsed(), 1e-9)

	mask := f.Mask()
	for i, fr := range frames {
		assert.Equal(t, mask.Width(), fr.Width(), "frame %d", i)
		assert.Equal(t, mask.Height(), fr.Height(), "frame %d", i)
		assert.True(t, fr.GetPixel(0, 0).Near(bg, 1.0/255), "frame %d corner shows the backdrop", i)
	}
	assert.NotSame(t, frames[0], frames[1])
}

func TestRenderAt(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newTestEffect(t, q)

	fr, err := RenderAt(f, q, 1250*time.Millisecond, paint.White)
	require.NoError(t, err)
	require.NotNil(t, fr)
	assert.InDelta(t, 1.25, f.Clock().Elapsed(), 1e-6)
}

func TestRenderDegraded(t *testing.T) {
	q := clock.NewFrameQueue()
	f := newTestEffect(t, q, glowtext.WithFieldFactory(func(glowtext.Options) (field.Field, error) {
		return nil, errors.New("no field today")
	}))

	_, err := RenderFrames(f, q, 2, time.Second/30, paint.White)
	require.Error(t, err)
	assert.True(t, f.Degraded())

	_, err = RenderAt(f, q, time.Second, paint.White)
	require.ErrorIs(t, err, ErrNoFrame)
}
