// Package metrics provides Prometheus collectors for the animated text
// component.
//
// Labels stay low-cardinality: degraded reasons come from a fixed set and
// text content is never a label.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Degraded reasons.
const (
	ReasonFieldInit = "field_init"
	ReasonMask      = "mask"
	ReasonRender    = "render"
)

// Collectors groups the component metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	FramesTotal     prometheus.Counter
	FrameRender     prometheus.Histogram
	MaskBuildsTotal prometheus.Counter
	MaskSkipsTotal  prometheus.Counter
	DegradedTotal   *prometheus.CounterVec
	ClockRunning    prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collectors{
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "glowtext_frames_total",
			Help: "Total number of frames rendered.",
		}),
		FrameRender: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "glowtext_frame_render_seconds",
			Help:    "Time spent stepping, rendering and compositing one frame.",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.133},
		}),
		MaskBuildsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "glowtext_mask_builds_total",
			Help: "Total number of text mask rasterizations.",
		}),
		MaskSkipsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "glowtext_mask_build_skips_total",
			Help: "Total number of mask rebuilds skipped because the measurement stayed within tolerance.",
		}),
		DegradedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "glowtext_degraded_total",
			Help: "Total number of transitions into degraded mode, by reason.",
		}, []string{"reason"}),
		ClockRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "glowtext_clock_running",
			Help: "Number of frame clocks currently running.",
		}),
	}
}

// ObserveFrame records one rendered frame and its duration.
func (c *Collectors) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.FramesTotal.Inc()
	c.FrameRender.Observe(d.Seconds())
}

// MaskBuilt records a mask rasterization.
func (c *Collectors) MaskBuilt() {
	if c == nil {
		return
	}
	c.MaskBuildsTotal.Inc()
}

// MaskSkipped records a debounced rebuild.
func (c *Collectors) MaskSkipped() {
	if c == nil {
		return
	}
	c.MaskSkipsTotal.Inc()
}

// Degraded records a transition into degraded mode.
func (c *Collectors) Degraded(reason string) {
	if c == nil {
		return
	}
	c.DegradedTotal.WithLabelValues(reason).Inc()
}

// ClockStarted increments the running-clock gauge.
func (c *Collectors) ClockStarted() {
	if c == nil {
		return
	}
	c.ClockRunning.Inc()
}

// ClockStopped decrements the running-clock gauge.
func (c *Collectors) ClockStopped() {
	if c == nil {
		return
	}
	c.ClockRunning.Dec()
}
