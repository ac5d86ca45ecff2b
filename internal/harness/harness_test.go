package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPath(name string) string {
	return filepath.Join("testdata", "scenarios", name)
}

func allScenarios(t *testing.T) []string {
	t.Helper()
	paths, err := filepath.Glob(scenarioPath("*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	return paths
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath("counter-basic.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "counter-basic", s.Name)
	assert.Len(t, s.Steps, 3)
	assert.FileExists(t, s.Design, "design path resolves relative to the scenario file")
}

func TestLoadScenarioErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}
	design := write("d.json", `{"name":"d","inputs":[],"outputs":[],"signals":[],"exprs":[],"registers":[]}`)

	_, err := LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	// Unknown fields are typos, not extensions.
	_, err = LoadScenario(write("typo.yaml",
		"name: x\ndesign: "+design+"\nstepz: []\n"))
	assert.ErrorContains(t, err, "stepz")

	_, err = LoadScenario(write("nosteps.yaml",
		"name: x\ndesign: "+design+"\nsteps: []\n"))
	assert.ErrorContains(t, err, "steps")

	_, err = LoadScenario(write("nodesign.yaml",
		"name: x\nsteps:\n  - propagate: true\n"))
	assert.ErrorContains(t, err, "design")

	_, err = LoadScenario(write("emptystep.yaml",
		"name: x\ndesign: "+design+"\nsteps:\n  - {}\n"))
	assert.ErrorContains(t, err, "no directive")
}

func TestRunCounterBasic(t *testing.T) {
	s, err := LoadScenario(scenarioPath("counter-basic.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, "counter-basic", result.Scenario)
	assert.Equal(t, "interp", result.Backend)
	assert.NotEmpty(t, result.Hash)
	assert.Equal(t, uint64(3), result.Final["count"])
	assert.NotEmpty(t, result.Changes)
}

func TestRunHonorsScenarioBackend(t *testing.T) {
	s, err := LoadScenario(scenarioPath("adder-basic.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, "jit", result.Backend)
}

func TestRunClockFirstStep(t *testing.T) {
	// A scenario may open with a clock directive: the run settles once
	// before driving the clock high, so the first rising edge still counts.
	s := &Scenario{
		Name:   "clock-first",
		Design: filepath.Join("testdata", "designs", "counter4.json"),
		Steps: []Step{
			{Clock: 3, Expect: map[string]uint64{"count": 3}},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Final["count"])
}

func TestRunExpectationFailure(t *testing.T) {
	s := &Scenario{
		Name:   "wrong",
		Design: filepath.Join("testdata", "designs", "counter4.json"),
		Steps: []Step{
			{Propagate: true},
			{Clock: 1, Expect: map[string]uint64{"count": 9}},
		},
	}
	_, err := Run(s)
	require.Error(t, err)

	var ee *ExpectationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.Step)
	assert.Equal(t, "count", ee.Signal)
	assert.Equal(t, uint64(9), ee.Want)
	assert.Equal(t, uint64(1), ee.Got)
}

func TestRunUnknownBackend(t *testing.T) {
	s := &Scenario{
		Name:    "bogus",
		Design:  filepath.Join("testdata", "designs", "adder8.json"),
		Backend: "fpga",
		Steps:   []Step{{Propagate: true}},
	}
	_, err := Run(s)
	assert.Error(t, err)
}

func TestRunDifferentialScenarios(t *testing.T) {
	for _, path := range allScenarios(t) {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			_, err = RunDifferential(s)
			assert.NoError(t, err)
		})
	}
}

func TestScenarioGolden(t *testing.T) {
	for _, path := range allScenarios(t) {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			_, err = RunWithGolden(t, s)
			require.NoError(t, err)
		})
	}
}
