package field

import (
	"math"
	"math/rand/v2"

	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/paint"
)

// Particle defaults and limits.
const (
	DefaultParticleCount = 36
	MinParticleCount     = 8
	MaxParticleCount     = 80
	DefaultParticleSpeed = 0.8
	DefaultParticleBlur  = 22.0
)

// Simulation constants. Distances are logical pixels, lifetimes frames.
const (
	velocityRange  = 0.6
	motionScale    = 1.1
	minRadius      = 30.0
	radiusRange    = 45.0
	minLifespan    = 600
	lifespanRange  = 600
	mixRange       = 90.0
	mixStrength    = 0.35
	pulseBase      = 0.9
	pulseAmplitude = 0.25
	pulseRate      = 1.2
	gradientRate   = 0.12
	gradientTravel = 1.5
	coreFraction   = 0.2
	layerAlphaBase = 0.25
	layerAlphaGain = 0.35
)

// Particle is one drifting color blob.
type Particle struct {
	X, Y     float64
	VX, VY   float64
	Radius   float64
	Base     paint.RGBA
	Current  paint.RGBA
	Age      int
	Lifespan int
	Phase    float64

	// Pulse is the radius factor of the last step.
	Pulse float64
}

// ParticleState is the complete, explicit state of a particle
// simulation. StepParticles is the only thing that advances it.
type ParticleState struct {
	Width, Height float64
	Palette       paint.Palette
	Particles     []Particle
	Frame         uint64

	rng *rand.Rand
}

// ClampParticleCount maps a requested count into [8, 80]; zero means the
// default of 36.
func ClampParticleCount(n int) int {
	if n == 0 {
		return DefaultParticleCount
	}
	return min(max(n, MinParticleCount), MaxParticleCount)
}

// NewParticleState creates count particles spread uniformly over a
// width x height box. The same seed always yields the same particles.
func NewParticleState(count int, width, height float64, palette paint.Palette, seed uint64) *ParticleState {
	s := &ParticleState{
		Width:     math.Max(width, 1),
		Height:    math.Max(height, 1),
		Palette:   palette,
		Particles: make([]Particle, ClampParticleCount(count)),
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := range s.Particles {
		s.Particles[i] = s.spawn()
	}
	return s
}

func (s *ParticleState) spawn() Particle {
	r := s.rng
	return Particle{
		X:        r.Float64() * s.Width,
		Y:        r.Float64() * s.Height,
		VX:       (r.Float64() - 0.5) * velocityRange,
		VY:       (r.Float64() - 0.5) * velocityRange,
		Radius:   minRadius + r.Float64()*radiusRange,
		Current:  s.randomColor(),
		Base:     s.randomColor(),
		Lifespan: minLifespan + int(r.Float64()*lifespanRange),
		Phase:    r.Float64() * 2 * math.Pi,
		Pulse:    1,
	}
}

func (s *ParticleState) randomColor() paint.RGBA {
	return s.Palette.Color(s.rng.IntN(s.Palette.Len()))
}

// StepParticles advances every particle by one frame: age and rebirth,
// motion scaled by speed, reflection at the box edges, neighbor color
// mixing and the pulse at animation time elapsed (seconds).
//
// Particles are updated in order and mix against neighbors as they are at
// that moment, so earlier particles have already moved.
func StepParticles(s *ParticleState, speed, elapsed float64) {
	speed = effectiveSpeed(speed, DefaultParticleSpeed)
	s.Frame++

	ps := s.Particles
	for i := range ps {
		p := &ps[i]

		p.Age++
		if p.Age > p.Lifespan {
			p.Age = 0
			p.Base = s.randomColor()
		}

		p.X += p.VX * speed * motionScale
		p.Y += p.VY * speed * motionScale
		if p.X < 0 || p.X > s.Width {
			p.VX = -p.VX
		}
		if p.Y < 0 || p.Y > s.Height {
			p.VY = -p.VY
		}
		p.X = math.Min(math.Max(p.X, 0), s.Width)
		p.Y = math.Min(math.Max(p.Y, 0), s.Height)

		mixed := p.Base
		rng := math.Max(p.Radius, mixRange)
		for j := range ps {
			if j == i {
				continue
			}
			dist := math.Hypot(p.X-ps[j].X, p.Y-ps[j].Y)
			if dist < rng {
				mixed = mixed.Mix(ps[j].Base, (1-dist/rng)*mixStrength)
			}
		}
		p.Current = mixed
		p.Pulse = pulseBase + math.Sin(elapsed*pulseRate+p.Phase)*pulseAmplitude
	}
}

// ParticleOptions configures a ParticleField. Zero values take defaults.
type ParticleOptions struct {
	// Count is clamped to [8, 80]; 0 means 36.
	Count int

	// Speed scales particle motion and gradient drift; default 0.8,
	// minimum 0.2.
	Speed float64

	// Blur is the Gaussian standard deviation of the particle pass in
	// logical pixels; default 22. Negative disables the blur.
	Blur float64

	// Saturation scales the chroma of the blurred particle pass; 0 means
	// 1 (unchanged).
	Saturation float64

	Seed uint64
}

type blob struct {
	gradient *paint.RadialGradient
	alpha    float64
}

// ParticleField renders a particle simulation over a sliding gradient.
type ParticleField struct {
	opts  ParticleOptions
	speed float64

	state   *ParticleState
	elapsed float64

	base  *paint.LinearGradient
	blobs []blob

	baseLayer     *paint.Layer
	particleLayer *paint.Layer
	closed        bool
}

var _ Field = (*ParticleField)(nil)

// NewParticleField creates a particle field. Call Reset before Render.
func NewParticleField(opts ParticleOptions) *ParticleField {
	if opts.Blur == 0 {
		opts.Blur = DefaultParticleBlur
	}
	if opts.Saturation <= 0 {
		opts.Saturation = 1
	}
	opts.Count = ClampParticleCount(opts.Count)
	return &ParticleField{
		opts:  opts,
		speed: effectiveSpeed(opts.Speed, DefaultParticleSpeed),
	}
}

// State exposes the simulation state.
func (f *ParticleField) State() *ParticleState {
	return f.state
}

// Reset implements Field. The particle set is recreated from the seed.
func (f *ParticleField) Reset(width, height float64, palette paint.Palette) {
	if f.closed {
		return
	}
	f.state = NewParticleState(f.opts.Count, width, height, palette, f.opts.Seed)
	f.elapsed = 0
	f.prepare()
}

// Step implements Field.
func (f *ParticleField) Step(fr clock.Frame) {
	if f.closed || f.state == nil {
		return
	}
	f.elapsed = fr.Elapsed
	StepParticles(f.state, f.speed, fr.Elapsed)
	f.prepare()
}

// prepare builds the brushes for the current state.
func (f *ParticleField) prepare() {
	s := f.state
	travel := s.Width * gradientTravel
	shift := fractional(f.elapsed*gradientRate*f.speed)*travel - travel/2
	f.base = paint.NewLinearGradient(shift, 0, shift+travel, s.Height).SetStops(s.Palette.Stops())

	f.blobs = f.blobs[:0]
	for i := range s.Particles {
		p := &s.Particles[i]
		r := p.Radius * p.Pulse
		g := paint.NewRadialGradient(p.X, p.Y, r*coreFraction, r).
			AddColorStop(0, p.Current).
			AddColorStop(0.45, p.Current.WithAlpha(208.0/255)).
			AddColorStop(1, p.Current.WithAlpha(0))
		f.blobs = append(f.blobs, blob{gradient: g, alpha: layerAlphaBase + p.Pulse*layerAlphaGain})
	}
}

// Render implements Field.
func (f *ParticleField) Render(dst *paint.Pixmap, scale float64) error {
	if f.closed {
		return ErrClosed
	}
	if f.state == nil {
		dst.Clear(paint.Transparent)
		return nil
	}
	if scale <= 0 {
		scale = 1
	}

	w, h := dst.Width(), dst.Height()
	if f.baseLayer == nil || f.baseLayer.Width() != w || f.baseLayer.Height() != h {
		f.baseLayer = paint.NewLayer(w, h)
		f.particleLayer = paint.NewLayer(w, h)
	}

	f.baseLayer.Fill(f.base, scale)
	f.particleLayer.Clear()
	for _, b := range f.blobs {
		f.particleLayer.DrawRadial(b.gradient, b.alpha, scale)
	}
	if f.opts.Blur > 0 {
		f.particleLayer.Blur(f.opts.Blur * scale)
	}
	f.particleLayer.Saturate(f.opts.Saturation)

	if err := f.baseLayer.DrawOver(f.particleLayer); err != nil {
		return err
	}
	return f.baseLayer.WriteTo(dst)
}

// Sample implements Field. It composites the blobs over the base gradient
// at one point, without the blur and saturation passes.
func (f *ParticleField) Sample(x, y float64) paint.RGBA {
	if f.closed || f.state == nil {
		return paint.Transparent
	}
	c := f.base.ColorAt(x, y).Premultiply()
	for _, b := range f.blobs {
		s := b.gradient.ColorAt(x, y)
		if s.A <= 0 {
			continue
		}
		s.A *= b.alpha
		s = s.Premultiply()
		inv := 1 - s.A
		c = paint.RGBA{R: s.R + c.R*inv, G: s.G + c.G*inv, B: s.B + c.B*inv, A: s.A + c.A*inv}
	}
	return c.Unpremultiply()
}

// Close implements Field.
func (f *ParticleField) Close() error {
	f.closed = true
	f.state = nil
	f.blobs = nil
	f.baseLayer = nil
	f.particleLayer = nil
	return nil
}

func fractional(x float64) float64 {
	return x - math.Floor(x)
}
