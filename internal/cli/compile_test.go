package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/engine"
)

func TestCompileProducesLoadableProgram(t *testing.T) {
	progPath := filepath.Join(t.TempDir(), "counter4.prog.json")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"-o", progPath, filepath.Join("testdata", "counter4.json")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ compiled counter4")

	data, err := os.ReadFile(progPath)
	require.NoError(t, err)
	prog, err := engine.UnmarshalProgram(data)
	require.NoError(t, err)
	assert.Equal(t, "counter4", prog.Name)
	assert.NotEmpty(t, prog.Code)

	// The artifact simulates standalone.
	sim := engine.NewProgramSim(prog)
	require.NoError(t, sim.Poke("rst", 0))
	require.NoError(t, sim.Propagate())
	for i := 0; i < 5; i++ {
		require.NoError(t, sim.Poke("clk", 1))
		require.NoError(t, sim.Propagate())
		require.NoError(t, sim.Poke("clk", 0))
		require.NoError(t, sim.Propagate())
	}
	count, err := sim.Peek("count")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
}

func TestCompileWritesToStdout(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "counter4.json")})

	require.NoError(t, cmd.Execute())

	prog, err := engine.UnmarshalProgram(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "counter4", prog.Name)
}

func TestCompileRejectsInvalidDesign(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "doubledriver.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
