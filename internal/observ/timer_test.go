package observ

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerAggregatesByName(t *testing.T) {
	tm := NewTimer()
	tm.Add("resolve", 2*time.Millisecond)
	tm.Add("infer", time.Millisecond)
	tm.Add("resolve", 3*time.Millisecond)
	tm.Annotate("infer", "3 files")

	r := tm.Report()
	require.Len(t, r.Phases, 2)
	require.Equal(t, "resolve", r.Phases[0].Name)
	require.Equal(t, 2, r.Phases[0].Runs)
	require.InDelta(t, 5.0, r.Phases[0].DurationMS, 0.001)
	require.InDelta(t, 6.0, r.TotalMS, 0.001)
	require.Contains(t, tm.Summary(), "// 3 files")
}

func TestTimerMeasurePropagatesError(t *testing.T) {
	tm := NewTimer()
	boom := errors.New("boom")
	require.ErrorIs(t, tm.Measure("translate", func() error { return boom }), boom)
	require.Equal(t, 1, tm.Report().Phases[0].Runs)

	var nilTimer *Timer
	require.NoError(t, nilTimer.Measure("x", func() error { return nil }))
}
