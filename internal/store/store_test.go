package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/trace"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	n := 0
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := Open(filepath.Join(t.TempDir(), "traces.db"),
		WithIDSource(func() string {
			n++
			return fmt.Sprintf("trace-%04d", n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleChanges() []trace.Change {
	return []trace.Change{
		{Time: 0, Signal: "clk", Width: 1, Value: 0},
		{Time: 0, Signal: "count", Width: 8, Value: 0},
		{Time: 1, Signal: "clk", Width: 1, Value: 1},
		{Time: 1, Signal: "count", Width: 8, Value: 1},
		{Time: 2, Signal: "clk", Width: 1, Value: 0},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())
	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTest(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestSaveAndGetTrace(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	id, err := s.SaveTrace(ctx, TraceMeta{
		DesignName: "counter",
		DesignHash: "sha256:abc",
		Backend:    "interp",
		Timescale:  "1ns",
	}, sampleChanges())
	require.NoError(t, err)
	assert.Equal(t, "trace-0001", id)

	meta, changes, err := s.GetTrace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "counter", meta.DesignName)
	assert.Equal(t, "sha256:abc", meta.DesignHash)
	assert.Equal(t, "interp", meta.Backend)
	assert.Equal(t, "1ns", meta.Timescale)
	assert.False(t, meta.CreatedAt.IsZero())
	assert.Equal(t, sampleChanges(), changes, "changes come back in recorded order")
}

func TestSaveTracePreservesWideValues(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	// The high bit must survive the text encoding round trip.
	big := []trace.Change{{Time: 0, Signal: "wide", Width: 64, Value: 0xFFFFFFFFFFFFFFFF}}
	id, err := s.SaveTrace(ctx, TraceMeta{DesignName: "d"}, big)
	require.NoError(t, err)

	_, changes, err := s.GetTrace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, big, changes)
}

func TestGetTraceUnknownID(t *testing.T) {
	s := openTest(t)
	_, _, err := s.GetTrace(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListTracesStableOrder(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveTrace(ctx, TraceMeta{DesignName: fmt.Sprintf("d%d", i)}, nil)
		require.NoError(t, err)
	}

	metas, err := s.ListTraces(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "trace-0001", metas[0].ID)
	assert.Equal(t, "trace-0003", metas[2].ID)
	assert.True(t, metas[0].CreatedAt.Before(metas[2].CreatedAt))
}

func TestListTracesEmpty(t *testing.T) {
	s := openTest(t)
	metas, err := s.ListTraces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TraceMeta{}, metas, "empty archive lists as empty, not nil")
}

func TestDeleteTraceCascades(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	id, err := s.SaveTrace(ctx, TraceMeta{DesignName: "d"}, sampleChanges())
	require.NoError(t, err)
	require.NoError(t, s.DeleteTrace(ctx, id))

	_, _, err = s.GetTrace(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM changes`).Scan(&n))
	assert.Zero(t, n, "changes cascade with the trace row")

	// Unknown IDs delete as a no-op.
	assert.NoError(t, s.DeleteTrace(ctx, "nope"))
}

func TestExplicitIDWins(t *testing.T) {
	s := openTest(t)
	id, err := s.SaveTrace(context.Background(), TraceMeta{ID: "pinned", DesignName: "d"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pinned", id)
}

func TestArchivedTraceRendersIdentically(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	changes := sampleChanges()
	id, err := s.SaveTrace(ctx, TraceMeta{DesignName: "counter", Timescale: "1ns"}, changes)
	require.NoError(t, err)

	meta, got, err := s.GetTrace(ctx, id)
	require.NoError(t, err)
	want := trace.RenderVCD("counter", "1ns", changes)
	assert.Equal(t, want, trace.RenderVCD(meta.DesignName, meta.Timescale, got))
}
