package field

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/paint"
)

// Noise defaults.
const (
	DefaultNoiseSpeed = 5.0
	DefaultCellSize   = 180.0
	NoiseOctaves      = 5
	AccentWeight      = 0.18
)

const (
	timeScale     = 0.05
	warpStrength  = 4.0
	accentFreq    = 8.0
	accentDrift   = 0.5
	octaveShift   = 100.0
	fbmNormalizer = 1 - 1.0/(1<<NoiseOctaves) // sum of 0.5^k, k=1..5
)

// octave rotation, (0.8, 0.6) is a 36.87 degree turn
const rotCos, rotSin = 0.8, 0.6

func fract(x float64) float64 {
	return x - math.Floor(x)
}

// hash21 is the classic sine hash of a lattice point into [0, 1).
func hash21(x, y float64) float64 {
	return fract(math.Sin(x*127.1+y*311.7) * 43758.5453)
}

// valueNoise interpolates lattice hashes with a smoothstep curve.
func valueNoise(x, y float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy

	a := hash21(ix, iy)
	b := hash21(ix+1, iy)
	c := hash21(ix, iy+1)
	d := hash21(ix+1, iy+1)

	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)
	return lerp(lerp(a, b, ux), lerp(c, d, ux), uy)
}

// fbm sums NoiseOctaves octaves with halving amplitude and doubling,
// rotated frequency, normalized into [0, 1].
func fbm(x, y float64) float64 {
	var v float64
	amp := 0.5
	for range NoiseOctaves {
		v += amp * valueNoise(x, y)
		x, y = 2*(rotCos*x+rotSin*y)+octaveShift, 2*(-rotSin*x+rotCos*y)+octaveShift
		amp *= 0.5
	}
	return v / fbmNormalizer
}

// NoiseValue is the field scalar in [0, 1] at noise-space point (x, y)
// and noise time tau. The shader package evaluates the same function.
func NoiseValue(x, y, tau float64) float64 {
	qx := fbm(x+0.1*tau, y)
	qy := fbm(x+5.2, y+1.3-0.1*tau)

	rx := fbm(x+warpStrength*qx+1.7+0.15*tau, y+warpStrength*qy+9.2)
	ry := fbm(x+warpStrength*qx+8.3, y+warpStrength*qy+2.8+0.126*tau)

	v := fbm(x+warpStrength*rx, y+warpStrength*ry)
	accent := valueNoise(accentFreq*x+accentDrift*tau, accentFreq*y+accentDrift*tau)
	return clamp01(lerp(v, accent, AccentWeight))
}

// NoiseOptions configures a NoiseField. Zero values take defaults.
type NoiseOptions struct {
	// Speed scales noise time; default 5, minimum 0.2.
	Speed float64

	// CellSize is the number of logical pixels per noise unit; default 180.
	CellSize float64

	// Workers bounds the goroutines rendering rows; 0 means GOMAXPROCS.
	Workers int
}

// NoiseField renders domain-warped fractal noise through the palette.
type NoiseField struct {
	opts  NoiseOptions
	speed float64

	width, height float64
	palette       paint.Palette
	tau           float64
	ready         bool
	closed        bool
}

var _ Field = (*NoiseField)(nil)

// NewNoiseField creates a noise field. Call Reset before Render.
func NewNoiseField(opts NoiseOptions) *NoiseField {
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultCellSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &NoiseField{
		opts:  opts,
		speed: effectiveSpeed(opts.Speed, DefaultNoiseSpeed),
	}
}

// Tau returns the current noise time.
func (f *NoiseField) Tau() float64 {
	return f.tau
}

// Reset implements Field.
func (f *NoiseField) Reset(width, height float64, palette paint.Palette) {
	if f.closed {
		return
	}
	f.width, f.height = math.Max(width, 1), math.Max(height, 1)
	f.palette = palette
	f.tau = 0
	f.ready = true
}

// Step implements Field.
func (f *NoiseField) Step(fr clock.Frame) {
	if f.closed {
		return
	}
	f.tau = fr.Elapsed * f.speed * timeScale
}

// Sample implements Field.
func (f *NoiseField) Sample(x, y float64) paint.RGBA {
	if f.closed || !f.ready {
		return paint.Transparent
	}
	return f.palette.At(NoiseValue(x/f.opts.CellSize, y/f.opts.CellSize, f.tau))
}

// Render implements Field. Rows are split across Workers goroutines; each
// writes only its own rows.
func (f *NoiseField) Render(dst *paint.Pixmap, scale float64) error {
	if f.closed {
		return ErrClosed
	}
	if !f.ready {
		dst.Clear(paint.Transparent)
		return nil
	}
	if scale <= 0 {
		scale = 1
	}

	w, h := dst.Width(), dst.Height()
	inv := 1 / (scale * f.opts.CellSize)
	rows := max(1, (h+f.opts.Workers-1)/f.opts.Workers)

	var g errgroup.Group
	g.SetLimit(f.opts.Workers)
	for y0 := 0; y0 < h; y0 += rows {
		y1 := min(y0+rows, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				ny := (float64(y) + 0.5) * inv
				for x := 0; x < w; x++ {
					nx := (float64(x) + 0.5) * inv
					dst.SetPixel(x, y, f.palette.At(NoiseValue(nx, ny, f.tau)))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Close implements Field.
func (f *NoiseField) Close() error {
	f.closed = true
	f.ready = false
	return nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
