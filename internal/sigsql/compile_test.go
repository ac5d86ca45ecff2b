package sigsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/sigquery"
)

func TestCompileSignalIs(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.SignalIs{Name: "clk"})
	require.NoError(t, err)
	assert.Equal(t, "signal = ?", sql)
	assert.Equal(t, []any{"clk"}, params)
}

func TestCompileSignalIn(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.SignalIn{Names: []string{"clk", "count"}})
	require.NoError(t, err)
	assert.Equal(t, "signal IN (?, ?)", sql)
	assert.Equal(t, []any{"clk", "count"}, params)
}

func TestCompileTimeBetween(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.TimeBetween{From: 10, To: 20})
	require.NoError(t, err)
	assert.Equal(t, "(time >= ? AND time <= ?)", sql)
	assert.Equal(t, []any{int64(10), int64(20)}, params)
}

func TestCompileValueIsParameterizesAsText(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.ValueIs{Value: 0xFFFFFFFFFFFFFFFF})
	require.NoError(t, err)
	assert.Equal(t, "value = ?", sql)
	assert.Equal(t, []any{"18446744073709551615"}, params)
}

func TestCompileAnd(t *testing.T) {
	f := sigquery.And{Filters: []sigquery.Filter{
		sigquery.SignalIs{Name: "count"},
		sigquery.TimeBetween{From: 0, To: 100},
	}}

	sql, params, err := CompileFilter(f)
	require.NoError(t, err)
	assert.Equal(t, "(signal = ? AND (time >= ? AND time <= ?))", sql)
	assert.Equal(t, []any{"count", int64(0), int64(100)}, params)
}

func TestCompileOr(t *testing.T) {
	f := sigquery.Or{Filters: []sigquery.Filter{
		sigquery.ValueIs{Value: 0},
		sigquery.ValueIs{Value: 1},
	}}

	sql, params, err := CompileFilter(f)
	require.NoError(t, err)
	assert.Equal(t, "(value = ? OR value = ?)", sql)
	assert.Equal(t, []any{"0", "1"}, params)
}

func TestCompileEmptyAndAlwaysTrue(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.And{})
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, params)
}

func TestCompileEmptyOrAlwaysFalse(t *testing.T) {
	sql, params, err := CompileFilter(sigquery.Or{})
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, params)
}

func TestCompileSingleElementListSkipsParens(t *testing.T) {
	sql, _, err := CompileFilter(sigquery.And{Filters: []sigquery.Filter{
		sigquery.SignalIs{Name: "clk"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "signal = ?", sql)
}

func TestCompilePointerNodes(t *testing.T) {
	sql, params, err := CompileFilter(&sigquery.And{Filters: []sigquery.Filter{
		&sigquery.SignalIs{Name: "clk"},
		&sigquery.ValueIs{Value: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(signal = ? AND value = ?)", sql)
	assert.Equal(t, []any{"clk", "1"}, params)
}

func TestCompileRejectsNilFilter(t *testing.T) {
	_, _, err := CompileFilter(nil)
	require.Error(t, err)
}

func TestCompileRejectsEmptySignalName(t *testing.T) {
	_, _, err := CompileFilter(sigquery.SignalIs{})
	require.Error(t, err)
}

func TestCompileRejectsInvertedTimeRange(t *testing.T) {
	_, _, err := CompileFilter(sigquery.TimeBetween{From: 9, To: 3})
	require.Error(t, err)
}

func TestChangesQuery(t *testing.T) {
	sql, params, err := ChangesQuery("trace-1", sigquery.SignalIs{Name: "led"})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT time, signal, width, value FROM changes WHERE trace_id = ? AND signal = ? ORDER BY seq ASC",
		sql)
	assert.Equal(t, []any{"trace-1", "led"}, params)
}

func TestChangesQueryNilFilterSelectsAll(t *testing.T) {
	sql, params, err := ChangesQuery("trace-1", nil)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT time, signal, width, value FROM changes WHERE trace_id = ? ORDER BY seq ASC",
		sql)
	assert.Equal(t, []any{"trace-1"}, params)
}
