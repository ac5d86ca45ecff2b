package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML-described simulation run.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Design is the path to the design document, resolved relative to the
	// scenario file.
	Design string `yaml:"design"`

	// Backend selects the execution backend. Empty means the interpreter.
	Backend string `yaml:"backend,omitempty"`

	// Clock names the signal driven by clock steps. Defaults to "clk".
	Clock string `yaml:"clock,omitempty"`

	// Trace lists the signals to record. Empty records every signal.
	Trace []string `yaml:"trace,omitempty"`

	// Steps is the stimulus program, executed in order.
	Steps []Step `yaml:"steps"`
}

// Step is one scenario instruction. A step may combine directives; they
// execute in a fixed order: poke, then propagate, then clock cycles, then
// expect.
type Step struct {
	// Poke sets input port values.
	Poke map[string]uint64 `yaml:"poke,omitempty"`

	// Propagate settles the network once and captures the trace.
	Propagate bool `yaml:"propagate,omitempty"`

	// Clock drives the scenario clock through this many full cycles, with a
	// propagate and capture on each edge. If nothing has propagated yet, the
	// run settles the network once first to establish the edge baseline.
	Clock int `yaml:"clock,omitempty"`

	// Expect checks signal values after the step's stimulus.
	Expect map[string]uint64 `yaml:"expect,omitempty"`
}

func (st *Step) empty() bool {
	return len(st.Poke) == 0 && !st.Propagate && st.Clock == 0 && len(st.Expect) == 0
}

// LoadScenario reads and parses a scenario file. Unknown YAML fields are
// rejected so typos fail loudly, and the design path is resolved relative to
// the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Design != "" && !filepath.IsAbs(s.Design) {
		s.Design = filepath.Join(filepath.Dir(path), s.Design)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Design == "" {
		return fmt.Errorf("design is required")
	}
	if _, err := os.Stat(s.Design); err != nil {
		return fmt.Errorf("design file: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.empty() {
			return fmt.Errorf("steps[%d]: step has no directive", i)
		}
		if st.Clock < 0 {
			return fmt.Errorf("steps[%d]: clock must be non-negative", i)
		}
	}
	return nil
}
