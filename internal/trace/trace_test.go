package trace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// fakeArena is a hand-driven value array standing in for a simulator.
type fakeArena struct {
	signals []ir.Signal
	vals    []uint64
}

func newFakeArena() *fakeArena {
	return &fakeArena{
		signals: []ir.Signal{
			{ID: 0, Name: "clk", Width: 1, Kind: ir.KindInput},
			{ID: 1, Name: "data", Width: 8, Kind: ir.KindInput},
			{ID: 2, Name: "addr_lo", Width: 4, Kind: ir.KindInternal},
			{ID: 3, Name: "addr_hi", Width: 4, Kind: ir.KindInternal},
		},
		vals: make([]uint64, 4),
	}
}

func (a *fakeArena) session() *Session {
	return NewSession("top", a.signals, func(id ir.SignalID) uint64 { return a.vals[id] })
}

func (a *fakeArena) set(name string, v uint64) {
	for _, s := range a.signals {
		if s.Name == name {
			a.vals[s.ID] = v
			return
		}
	}
	panic("unknown signal " + name)
}

func TestSelection(t *testing.T) {
	a := newFakeArena()
	s := a.session()

	require.Error(t, s.Add("ghost"))
	require.NoError(t, s.Add("clk"))
	require.NoError(t, s.Add("clk"), "re-adding is idempotent")
	assert.Equal(t, []string{"clk"}, s.Selected())

	assert.Equal(t, 2, s.AddPattern("addr"))
	assert.Equal(t, 0, s.AddPattern("nothing"))
	assert.Equal(t, []string{"clk", "addr_lo", "addr_hi"}, s.Selected())

	s.AddAll()
	assert.Equal(t, []string{"clk", "addr_lo", "addr_hi", "data"}, s.Selected())
}

func TestCaptureRequiresStart(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	s.AddAll()

	require.NoError(t, s.Capture(0))
	assert.False(t, s.Enabled())
	assert.Empty(t, s.Snapshot(), "capture before Start records nothing")
}

func TestSparseCapture(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))
	require.NoError(t, s.Add("data"))
	s.Start()

	a.set("data", 0x10)
	require.NoError(t, s.Capture(0))

	// Nothing changed: no new records.
	require.NoError(t, s.Capture(1))

	a.set("data", 0x11)
	require.NoError(t, s.Capture(2))

	a.set("clk", 1)
	a.set("data", 0x12)
	require.NoError(t, s.Capture(3))

	want := []Change{
		{Time: 0, Signal: "clk", Width: 1, Value: 0},
		{Time: 0, Signal: "data", Width: 8, Value: 0x10},
		{Time: 2, Signal: "data", Width: 8, Value: 0x11},
		{Time: 3, Signal: "clk", Width: 1, Value: 1},
		{Time: 3, Signal: "data", Width: 8, Value: 0x12},
	}
	assert.Equal(t, want, s.Snapshot())
}

func TestToggleCountExact(t *testing.T) {
	// A clock toggled n times yields exactly n change records beyond the
	// baseline, one per toggle.
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))
	s.Start()

	require.NoError(t, s.Capture(0))
	clk := uint64(0)
	for i := uint64(1); i <= 10; i++ {
		clk ^= 1
		a.set("clk", clk)
		require.NoError(t, s.Capture(i))
	}

	recs := s.Snapshot()
	n := 0
	for _, c := range recs {
		if c.Signal == "clk" && c.Time > 0 {
			n++
		}
	}
	assert.Equal(t, 10, n)
}

func TestVCDFraming(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))
	require.NoError(t, s.Add("data"))
	s.Start()

	a.set("data", 5)
	require.NoError(t, s.Capture(0))
	a.set("clk", 1)
	a.set("data", 6)
	require.NoError(t, s.Capture(1))

	want := "$timescale 1ns $end\n" +
		"$scope module top $end\n" +
		"$var wire 1 ! clk $end\n" +
		"$var wire 8 \" data $end\n" +
		"$upscope $end\n" +
		"$enddefinitions $end\n" +
		"#0\n" +
		"$dumpvars\n" +
		"0!\n" +
		"b101 \"\n" +
		"$end\n" +
		"#1\n" +
		"1!\n" +
		"b110 \"\n"
	assert.Equal(t, want, s.ToVCD())
}

func TestVCDRoundTrip(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	s.AddAll()
	s.Start()

	a.set("data", 0xAB)
	require.NoError(t, s.Capture(0))
	for i := uint64(1); i <= 6; i++ {
		a.set("clk", i%2)
		if i == 3 {
			a.set("data", 0xCD)
		}
		if i == 5 {
			a.set("addr_lo", 0xF)
		}
		require.NoError(t, s.Capture(i))
	}

	parsed, err := ParseVCD(s.ToVCD())
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), parsed)
}

func TestParseVCDRejectsMalformed(t *testing.T) {
	for _, text := range []string{
		"$var wire x ! clk $end\n",
		"#notanumber\n",
		"1!\n", // undeclared identifier
		"b10\n",
		"what is this\n",
	} {
		_, err := ParseVCD(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestTakeChunkConcatenation(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))
	s.Start()

	require.NoError(t, s.Capture(0))
	a.set("clk", 1)
	require.NoError(t, s.Capture(1))

	first := s.TakeChunk()
	assert.Contains(t, first, "$enddefinitions", "first chunk carries the header")

	a.set("clk", 0)
	require.NoError(t, s.Capture(2))
	a.set("clk", 1)
	require.NoError(t, s.Capture(3))
	second := s.TakeChunk()
	assert.NotContains(t, second, "$enddefinitions", "header is emitted once")

	// Draining leaves nothing behind.
	assert.Empty(t, s.TakeChunk())

	parsed, err := ParseVCD(first + second)
	require.NoError(t, err)
	want := []Change{
		{Time: 0, Signal: "clk", Width: 1, Value: 0},
		{Time: 1, Signal: "clk", Width: 1, Value: 1},
		{Time: 2, Signal: "clk", Width: 1, Value: 0},
		{Time: 3, Signal: "clk", Width: 1, Value: 1},
	}
	assert.Equal(t, want, parsed)
}

func TestClearBufferKeepsSelection(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("data"))
	s.Start()

	a.set("data", 1)
	require.NoError(t, s.Capture(0))
	a.set("data", 2)
	require.NoError(t, s.Capture(1))
	require.NotEmpty(t, s.Snapshot())

	s.Clear(ClearBuffer)
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, []string{"data"}, s.Selected())
	assert.True(t, s.Enabled(), "Clear never touches the enabled flag")

	// Next capture re-baselines.
	require.NoError(t, s.Capture(5))
	assert.Equal(t, []Change{{Time: 5, Signal: "data", Width: 8, Value: 2}}, s.Snapshot())
}

func TestClearSelectionKeepsBuffer(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("data"))
	s.Start()

	a.set("data", 7)
	require.NoError(t, s.Capture(0))
	s.Clear(ClearSelection)

	assert.Empty(t, s.Selected())
	parsed, err := ParseVCD(s.ToVCD())
	require.NoError(t, err)
	assert.Equal(t, []Change{{Time: 0, Signal: "data", Width: 8, Value: 7}}, parsed,
		"buffered records render even after the selection is dropped")
}

func TestStreamingToFile(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))

	path := filepath.Join(t.TempDir(), "out.vcd")
	require.NoError(t, s.StartStreamingFile(path))

	require.NoError(t, s.Capture(0))
	a.set("clk", 1)
	require.NoError(t, s.Capture(1))
	a.set("clk", 0)
	require.NoError(t, s.Capture(2))
	require.NoError(t, s.Stop())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := ParseVCD(string(data))
	require.NoError(t, err)
	want := []Change{
		{Time: 0, Signal: "clk", Width: 1, Value: 0},
		{Time: 1, Signal: "clk", Width: 1, Value: 1},
		{Time: 2, Signal: "clk", Width: 1, Value: 0},
	}
	assert.Equal(t, want, parsed)
}

type failingWriter struct{ err error }

func (w *failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestStreamingWriteFailure(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	require.NoError(t, s.Add("clk"))

	sinkErr := errors.New("disk full")
	s.StartStreaming(&failingWriter{err: sinkErr})

	err := s.Capture(0)
	require.Error(t, err)
	assert.True(t, IsTraceIO(err))
	assert.ErrorIs(t, err, sinkErr)
	assert.True(t, s.Enabled(), "a sink failure does not disarm the session")
}

func TestIDCode(t *testing.T) {
	assert.Equal(t, "!", idCode(0))
	assert.Equal(t, "~", idCode(93))
	assert.Equal(t, "!!", idCode(94))
	assert.Equal(t, "!~", idCode(187))
}

func TestSetTimescale(t *testing.T) {
	a := newFakeArena()
	s := a.session()
	s.SetTimescale("10ps")
	assert.Contains(t, s.ToVCD(), "$timescale 10ps $end")
}
