package clock

import "time"

// MaxDelta is the largest time step a single frame may advance. A longer
// gap, such as a host resuming from the background, counts as MaxDelta.
const MaxDelta = 100 * time.Millisecond

// Phase is the lifecycle phase of a Clock.
type Phase int

const (
	// Idle means no frame callback is pending.
	Idle Phase = iota
	// Running means a frame callback is always pending.
	Running
)

// String returns the phase name.
func (p Phase) String() string {
	if p == Running {
		return "running"
	}
	return "idle"
}

// Frame is handed to the render step once per callback.
type Frame struct {
	// Index counts frames rendered since the clock was created.
	Index uint64

	// Elapsed is the accumulated animation time in seconds.
	Elapsed float64

	// Delta is the clamped step that produced Elapsed.
	Delta time.Duration

	// Timestamp is the scheduler timestamp of the callback.
	Timestamp time.Duration
}

// State is a snapshot of a clock's animation state.
type State struct {
	Phase   Phase
	Elapsed float64

	// LastTimestamp is nil until the first frame after Start, which
	// therefore advances by zero.
	LastTimestamp *time.Duration

	Handle Handle
	Frames uint64
}

// Clock is the Idle/Running state machine that advances animation time.
//
// Clock is not safe for concurrent use; it runs on the scheduler's
// goroutine.
type Clock struct {
	sched  Scheduler
	render func(Frame)
	hook   func(running bool)

	phase   Phase
	elapsed float64
	last    time.Duration
	hasLast bool
	handle  Handle
	frames  uint64
}

// New creates an idle clock. render may be nil and set later.
func New(s Scheduler, render func(Frame)) *Clock {
	return &Clock{sched: s, render: render}
}

// SetRender replaces the render step. It takes effect on the next frame.
func (c *Clock) SetRender(render func(Frame)) {
	c.render = render
}

// OnPhaseChange registers fn to be called after Start and Stop change the
// phase.
func (c *Clock) OnPhaseChange(fn func(running bool)) {
	c.hook = fn
}

// Start schedules continuous frame callbacks. Calling Start while Running
// is a no-op.
func (c *Clock) Start() {
	if c.phase == Running {
		return
	}
	c.phase = Running
	c.hasLast = false
	c.handle = c.sched.RequestFrame(c.tick)
	if c.hook != nil {
		c.hook(true)
	}
}

// Stop cancels the pending callback. Calling Stop while Idle is a no-op.
func (c *Clock) Stop() {
	if c.phase == Idle {
		return
	}
	c.phase = Idle
	if c.handle != 0 {
		c.sched.CancelFrame(c.handle)
		c.handle = 0
	}
	if c.hook != nil {
		c.hook(false)
	}
}

// Running reports whether the clock is Running.
func (c *Clock) Running() bool {
	return c.phase == Running
}

// Elapsed returns the animation time in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Reset zeroes the animation time without changing the phase.
func (c *Clock) Reset() {
	c.elapsed = 0
	c.hasLast = false
}

// State returns a snapshot of the animation state.
func (c *Clock) State() State {
	s := State{
		Phase:   c.phase,
		Elapsed: c.elapsed,
		Handle:  c.handle,
		Frames:  c.frames,
	}
	if c.hasLast {
		last := c.last
		s.LastTimestamp = &last
	}
	return s
}

func (c *Clock) tick(ts time.Duration) {
	if c.phase != Running {
		return
	}
	c.handle = 0

	var delta time.Duration
	if c.hasLast {
		delta = min(max(ts-c.last, 0), MaxDelta)
	}
	c.last, c.hasLast = ts, true
	c.elapsed += delta.Seconds()
	c.frames++

	if c.render != nil {
		c.render(Frame{
			Index:     c.frames,
			Elapsed:   c.elapsed,
			Delta:     delta,
			Timestamp: ts,
		})
	}

	// render may have stopped, or stopped and restarted, the clock.
	if c.phase == Running && c.handle == 0 {
		c.handle = c.sched.RequestFrame(c.tick)
	}
}
