package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveFrame(4 * time.Millisecond)
	c.ObserveFrame(6 * time.Millisecond)
	c.MaskBuilt()
	c.MaskSkipped()
	c.MaskSkipped()
	c.Degraded(ReasonFieldInit)
	c.ClockStarted()
	c.ClockStarted()
	c.ClockStopped()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.FramesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MaskBuildsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.MaskSkipsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DegradedTotal.WithLabelValues(ReasonFieldInit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ClockRunning))
	assert.Equal(t, 1, testutil.CollectAndCount(c.FrameRender))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"glowtext_frames_total",
		"glowtext_frame_render_seconds",
		"glowtext_mask_builds_total",
		"glowtext_mask_build_skips_total",
		"glowtext_degraded_total",
		"glowtext_clock_running",
	}, names)
}

func TestNilCollectorsAreNoops(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ObserveFrame(time.Millisecond)
		c.MaskBuilt()
		c.MaskSkipped()
		c.Degraded(ReasonMask)
		c.ClockStarted()
		c.ClockStopped()
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
