package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/store"
	"github.com/hdlkit/hdlkit/internal/trace"
)

func seedArchive(t *testing.T) (string, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "traces.db")

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	id, err := db.SaveTrace(context.Background(), store.TraceMeta{
		DesignName: "blinker",
		DesignHash: "cafe",
		Backend:    "interp",
		Timescale:  "1ns",
	}, []trace.Change{
		{Time: 1, Signal: "led", Width: 1, Value: 0},
		{Time: 2, Signal: "led", Width: 1, Value: 1},
		{Time: 3, Signal: "led", Width: 1, Value: 0},
	})
	require.NoError(t, err)
	return dbPath, id
}

func TestTraceListRequiresDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceListCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceList(t *testing.T) {
	dbPath, id := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceListCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), "blinker")
}

func TestTraceExportRoundTrip(t *testing.T) {
	dbPath, id := seedArchive(t)
	outPath := filepath.Join(t.TempDir(), "out.vcd")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceExportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--out", outPath, id})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	changes, err := trace.ParseVCD(string(data))
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "led", changes[0].Signal)
	assert.Equal(t, uint64(1), changes[1].Value)
}

func TestTraceExportUnknownID(t *testing.T) {
	dbPath, _ := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceExportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "missing-id"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTraceQueryBySignalAndValue(t *testing.T) {
	dbPath, id := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--signal", "led", "--value", "1", id})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "TIME")
	assert.Contains(t, out, "led")
	assert.NotContains(t, out, "\n3") // value-0 change at time 3 filtered out
}

func TestTraceQueryTimeWindow(t *testing.T) {
	dbPath, id := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := newTraceQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--from", "2", id})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["changes"], 2)
}

func TestTraceDelete(t *testing.T) {
	dbPath, id := seedArchive(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newTraceDeleteCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, id})

	require.NoError(t, cmd.Execute())

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	metas, err := db.ListTraces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metas)
}
