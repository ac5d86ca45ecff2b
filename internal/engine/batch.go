package engine

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// ProgramSim drives a translated Program with no design graph at all: the
// artifact is self-contained, which is what makes ahead-of-time translation
// useful for boot-test-scale batch runs and for shipping a design without
// its IR. Semantics are identical to Simulator by construction and held to
// that by the differential suite.
type ProgramSim struct {
	prog      *Program
	vals      []uint64
	byName    map[string]int
	prevClock map[int]uint64
	step      uint64
	maxSettle int
}

// NewProgramSim initializes a standalone run of the artifact: every slot
// zero, registers at their reset values.
func NewProgramSim(p *Program) *ProgramSim {
	byName := make(map[string]int, len(p.Signals))
	for _, sig := range p.Signals {
		byName[sig.Name] = int(sig.ID)
	}
	s := &ProgramSim{
		prog:      p,
		vals:      make([]uint64, len(p.Signals)),
		byName:    byName,
		maxSettle: DefaultMaxSettleIters,
	}
	s.initState()
	return s
}

func (s *ProgramSim) initState() {
	for i := range s.vals {
		s.vals[i] = 0
	}
	for _, r := range s.prog.Regs {
		s.vals[r.Out] = r.ResetValue
	}
}

// Peek reads a signal value by name.
func (s *ProgramSim) Peek(name string) (uint64, error) {
	id, ok := s.byName[name]
	if !ok {
		return 0, &UnknownSignalError{Name: name}
	}
	return s.vals[id], nil
}

// Poke sets an input port value.
func (s *ProgramSim) Poke(name string, v uint64) error {
	id, ok := s.byName[name]
	if !ok {
		return &UnknownSignalError{Name: name}
	}
	sig := s.prog.Signals[id]
	if sig.Kind != ir.KindInput {
		return fmt.Errorf("signal %q has kind %q, only inputs are pokeable", name, sig.Kind)
	}
	if !ir.Fits(v, sig.Width) {
		return fmt.Errorf("value %d does not fit width-%d signal %q", v, sig.Width, name)
	}
	s.vals[id] = v
	return nil
}

// Propagate mirrors Simulator.Propagate over the compiled tape: settle,
// latch, commit on rising edges, re-settle.
func (s *ProgramSim) Propagate() error {
	if err := s.settle(); err != nil {
		return err
	}

	nexts := make([]uint64, len(s.prog.Regs))
	for i, r := range s.prog.Regs {
		nexts[i] = s.vals[r.Data]
	}

	first := s.prevClock == nil
	if first {
		s.prevClock = make(map[int]uint64, len(s.prog.Regs))
	}

	committed := 0
	if !first {
		for i, r := range s.prog.Regs {
			if !(s.prevClock[r.Clock] == 0 && s.vals[r.Clock] == 1) {
				continue
			}
			switch {
			case r.Reset >= 0 && s.vals[r.Reset] != 0:
				if s.vals[r.Out] != r.ResetValue {
					s.vals[r.Out] = r.ResetValue
					committed++
				}
			case r.Enable < 0 || s.vals[r.Enable] != 0:
				if s.vals[r.Out] != nexts[i] {
					s.vals[r.Out] = nexts[i]
					committed++
				}
			}
		}
	}

	if committed > 0 {
		if err := s.settle(); err != nil {
			return err
		}
	}
	for _, r := range s.prog.Regs {
		s.prevClock[r.Clock] = s.vals[r.Clock]
	}
	s.step++
	return nil
}

func (s *ProgramSim) settle() error {
	for i := 1; ; i++ {
		if s.prog.Run(s.vals) == 0 {
			return nil
		}
		if i >= s.maxSettle {
			return &CombinationalLoopError{
				Signal:     s.findUnsettled(),
				Iterations: s.maxSettle,
			}
		}
	}
}

// findUnsettled names the first slot that still changes under one more run
// of the tape, for the loop diagnostic.
func (s *ProgramSim) findUnsettled() string {
	before := append([]uint64(nil), s.vals...)
	s.prog.Run(s.vals)
	for i, v := range s.vals {
		if before[i] != v {
			return s.prog.Signals[i].Name
		}
	}
	return "<unknown>"
}

// Reset restores construction state.
func (s *ProgramSim) Reset() {
	s.initState()
	s.prevClock = nil
	s.step = 0
}
