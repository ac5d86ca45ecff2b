package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/testutil"
	"github.com/hdlkit/hdlkit/internal/trace"
)

func TestTraceClockToggles(t *testing.T) {
	// Ten full clock cycles captured after every propagate produce exactly
	// twenty clk records beyond the baseline, one per toggle.
	s, err := New(testutil.Counter(4))
	require.NoError(t, err)

	require.NoError(t, s.Trace().Add("clk"))
	s.TraceStart()

	mustStep(t, s)
	require.NoError(t, s.TraceCapture()) // baseline at clk=0
	for i := 0; i < 10; i++ {
		mustPoke(t, s, "clk", 1)
		mustStep(t, s)
		require.NoError(t, s.TraceCapture())
		mustPoke(t, s, "clk", 0)
		mustStep(t, s)
		require.NoError(t, s.TraceCapture())
	}

	recs := s.Trace().Snapshot()
	require.NotEmpty(t, recs)
	toggles := 0
	for _, c := range recs[1:] {
		require.Equal(t, "clk", c.Signal)
		toggles++
	}
	assert.Equal(t, 20, toggles)
}

func TestTraceSurvivesSimulatorReset(t *testing.T) {
	s, err := New(testutil.Counter(4))
	require.NoError(t, err)

	require.NoError(t, s.Trace().Add("count"))
	s.TraceStart()
	mustStep(t, s)
	require.NoError(t, s.TraceCapture())
	before := s.Trace().Snapshot()
	require.NotEmpty(t, before)

	s.Reset()
	assert.Equal(t, before, s.Trace().Snapshot(), "Reset leaves the trace buffer intact")
	assert.True(t, s.Trace().Enabled())
}

func TestTraceVCDRoundTripThroughSimulator(t *testing.T) {
	s, err := New(testutil.Counter(4))
	require.NoError(t, err)

	s.Trace().AddAll()
	s.TraceStart()
	mustStep(t, s)
	require.NoError(t, s.TraceCapture())
	for i := 0; i < 4; i++ {
		cycle(t, s)
		require.NoError(t, s.TraceCapture())
	}

	parsed, err := trace.ParseVCD(s.TraceToVCD())
	require.NoError(t, err)
	assert.Equal(t, s.Trace().Snapshot(), parsed)
}
