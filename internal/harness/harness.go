package harness

import (
	"fmt"
	"os"

	"github.com/hdlkit/hdlkit/internal/engine"
	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/trace"
)

// ExpectationError reports one failed expect directive.
type ExpectationError struct {
	Step   int
	Signal string
	Want   uint64
	Got    uint64
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("steps[%d]: expected %s = %d, got %d", e.Step, e.Signal, e.Want, e.Got)
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	Backend  string
	Hash     string
	// Final holds every output port's settled value after the last step.
	Final map[string]uint64
	// Changes is the recorded trace, baseline first.
	Changes []trace.Change
	// VCD is the trace rendered to VCD text.
	VCD string
}

// RunOption adjusts a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	backend engine.BackendKind
}

// WithBackend overrides the scenario's backend selection.
func WithBackend(kind engine.BackendKind) RunOption {
	return func(c *runConfig) { c.backend = kind }
}

// Run executes a scenario and returns its result. The first failed
// expectation aborts the run.
func Run(s *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{backend: engine.BackendInterp}
	if s.Backend != "" {
		cfg.backend = engine.BackendKind(s.Backend)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	d, err := loadDesign(s.Design)
	if err != nil {
		return nil, err
	}

	sim, err := engine.New(d, engine.WithBackend(cfg.backend))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	sel := sim.Trace()
	if len(s.Trace) == 0 {
		sel.AddAll()
	} else {
		for _, name := range s.Trace {
			if err := sel.Add(name); err != nil {
				return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
			}
		}
	}
	sim.TraceStart()

	clock := s.Clock
	if clock == "" {
		clock = "clk"
	}

	settled := false
	step := func() error {
		if err := sim.Propagate(); err != nil {
			return err
		}
		settled = true
		return sim.TraceCapture()
	}

	for i := range s.Steps {
		st := &s.Steps[i]
		for name, v := range st.Poke {
			if err := sim.Poke(name, v); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if st.Propagate {
			if err := step(); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		// The first propagate establishes the clock-edge baseline, so a
		// scenario opening with a clock directive needs one before the
		// clock goes high or its first rising edge is lost.
		if st.Clock > 0 && !settled {
			if err := step(); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		for c := 0; c < st.Clock; c++ {
			for _, edge := range []uint64{1, 0} {
				if err := sim.Poke(clock, edge); err != nil {
					return nil, fmt.Errorf("steps[%d]: %w", i, err)
				}
				if err := step(); err != nil {
					return nil, fmt.Errorf("steps[%d]: %w", i, err)
				}
			}
		}
		for name, want := range st.Expect {
			got, err := sim.Peek(name)
			if err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			if got != want {
				return nil, &ExpectationError{Step: i, Signal: name, Want: want, Got: got}
			}
		}
	}

	final := make(map[string]uint64, len(d.Outputs))
	for _, name := range d.Outputs {
		v, err := sim.Peek(name)
		if err != nil {
			return nil, err
		}
		final[name] = v
	}

	return &Result{
		Scenario: s.Name,
		Backend:  string(cfg.backend),
		Hash:     sim.Hash(),
		Final:    final,
		Changes:  sel.Snapshot(),
		VCD:      sim.TraceToVCD(),
	}, nil
}

// RunDifferential runs the scenario on every backend and requires identical
// results: same final values, same trace, same expectations passing. The
// interpreter is the reference.
func RunDifferential(s *Scenario) (*Result, error) {
	ref, err := Run(s, WithBackend(engine.BackendInterp))
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", engine.BackendInterp, err)
	}
	for _, kind := range engine.Kinds {
		if kind == engine.BackendInterp {
			continue
		}
		got, err := Run(s, WithBackend(kind))
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", kind, err)
		}
		for name, want := range ref.Final {
			if got.Final[name] != want {
				return nil, fmt.Errorf("backend %s: output %q = %d, interpreter got %d",
					kind, name, got.Final[name], want)
			}
		}
		if got.VCD != ref.VCD {
			return nil, fmt.Errorf("backend %s: trace diverges from interpreter", kind)
		}
	}
	return ref, nil
}

func loadDesign(path string) (*ir.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read design: %w", err)
	}
	d, err := ir.DecodeDesign(data)
	if err != nil {
		return nil, fmt.Errorf("decode design %s: %w", path, err)
	}
	return d, nil
}
