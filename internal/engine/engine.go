package engine

import (
	"fmt"
	"log/slog"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/trace"
)

// DefaultMaxSettleIters bounds the fixpoint sweep inside one Propagate.
// A sound, validated design settles in a handful of sweeps; the cap exists
// to turn an unbroken combinational cycle into a diagnosable error instead
// of an infinite loop.
const DefaultMaxSettleIters = 1000

// ArtifactCache shares translated Programs between simulators of the same
// design, keyed by design content hash. Zero value is ready to use.
//
// Not safe for concurrent use; the whole engine is single-threaded,
// caller-driven.
type ArtifactCache struct {
	programs map[string]*Program
}

func (c *ArtifactCache) get(hash string) *Program {
	return c.programs[hash]
}

func (c *ArtifactCache) put(hash string, p *Program) {
	if c.programs == nil {
		c.programs = make(map[string]*Program)
	}
	c.programs[hash] = p
}

// Simulator owns one compiled design, one backend and the flat value array.
// There is no global state anywhere in the engine: two simulators of the
// same design are fully independent.
type Simulator struct {
	plan    *compiler.Plan
	backend Backend
	vals    []uint64

	// prevClock holds each clock net's settled value at the end of the
	// previous Propagate. Nil until the first Propagate: the baseline is
	// whatever the clocks read at that point, so constructing a design
	// with a high clock does not fabricate a rising edge.
	prevClock map[ir.SignalID]uint64

	step        uint64
	backendKind BackendKind
	maxSettle   int
	cache       *ArtifactCache
	log         *slog.Logger
	trace       *trace.Session
}

// Option configures a Simulator at construction.
type Option func(*Simulator)

// WithBackend selects the execution strategy. Default is the interpreter.
func WithBackend(kind BackendKind) Option {
	return func(s *Simulator) { s.backendKind = kind }
}

// WithMaxSettleIters overrides the fixpoint iteration cap.
func WithMaxSettleIters(n int) Option {
	return func(s *Simulator) { s.maxSettle = n }
}

// WithArtifactCache shares a translated-program cache across simulators.
func WithArtifactCache(c *ArtifactCache) Option {
	return func(s *Simulator) { s.cache = c }
}

// WithLogger installs a structured logger. Default discards nothing but
// logs at the default slog level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// New validates and compiles the design, builds the chosen backend and
// initializes the value array: every signal zero, every register at its
// reset value.
func New(d *ir.Design, opts ...Option) (*Simulator, error) {
	plan, err := compiler.Compile(d)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		plan:        plan,
		backendKind: BackendInterp,
		maxSettle:   DefaultMaxSettleIters,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.buildBackend(); err != nil {
		return nil, err
	}
	s.vals = make([]uint64, len(d.Signals))
	s.initState()
	s.log.Debug("simulator constructed",
		"design", d.Name,
		"backend", s.backend.Name(),
		"signals", len(d.Signals),
		"exprs", len(d.Exprs),
		"registers", len(d.Registers))
	return s, nil
}

func (s *Simulator) buildBackend() error {
	if s.backendKind == BackendCompiled && s.cache != nil {
		if prog := s.cache.get(s.plan.Hash); prog != nil {
			s.backend = newCompiled(prog)
			return nil
		}
	}
	b, err := newBackend(s.backendKind, s.plan)
	if err != nil {
		return err
	}
	if c, ok := b.(*compiled); ok && s.cache != nil {
		s.cache.put(s.plan.Hash, c.Artifact())
	}
	s.backend = b
	return nil
}

func (s *Simulator) initState() {
	for i := range s.vals {
		s.vals[i] = 0
	}
	for _, r := range s.plan.Design.Registers {
		s.vals[r.Out] = r.ResetValue
	}
}

// Design returns the immutable design behind this simulator.
func (s *Simulator) Design() *ir.Design { return s.plan.Design }

// Hash returns the design's content hash.
func (s *Simulator) Hash() string { return s.plan.Hash }

// BackendName reports the active execution strategy.
func (s *Simulator) BackendName() string { return s.backend.Name() }

// Now returns the number of completed Propagate calls, the time base used
// for trace capture.
func (s *Simulator) Now() uint64 { return s.step }

// Signals enumerates the design's signals in arena order.
func (s *Simulator) Signals() []ir.Signal {
	return append([]ir.Signal(nil), s.plan.Design.Signals...)
}

// Peek reads a signal's current value by qualified name.
func (s *Simulator) Peek(name string) (uint64, error) {
	id, ok := s.plan.ByName[name]
	if !ok {
		return 0, &UnknownSignalError{Name: name}
	}
	return s.vals[id], nil
}

// Poke sets an input port's value. Only inputs are pokeable: everything
// else is owned by an expression or a register and would be overwritten by
// the next sweep anyway.
func (s *Simulator) Poke(name string, v uint64) error {
	id, ok := s.plan.ByName[name]
	if !ok {
		return &UnknownSignalError{Name: name}
	}
	sig := s.plan.Design.Signals[id]
	if sig.Kind != ir.KindInput {
		return fmt.Errorf("signal %q has kind %q, only inputs are pokeable", name, sig.Kind)
	}
	if !ir.Fits(v, sig.Width) {
		return fmt.Errorf("value %d does not fit width-%d signal %q", v, sig.Width, name)
	}
	s.vals[id] = v
	return nil
}

// Propagate settles the combinational network, commits registers on rising
// clock edges and re-settles if anything committed. Idempotent when inputs
// and register state are unchanged.
func (s *Simulator) Propagate() error {
	if err := s.settle(); err != nil {
		return err
	}

	d := s.plan.Design
	// Latch every next value before any commit, so registers chained on
	// the same clock shift old values, not freshly committed ones.
	nexts := make([]uint64, len(d.Registers))
	for i, r := range d.Registers {
		nexts[i] = s.vals[r.Data]
	}

	first := s.prevClock == nil
	if first {
		s.prevClock = make(map[ir.SignalID]uint64, len(d.Registers))
	}

	committed := 0
	if !first {
		for i, r := range d.Registers {
			prev, now := s.prevClock[r.Clock], s.vals[r.Clock]
			if !(prev == 0 && now == 1) {
				continue
			}
			switch {
			case r.HasReset() && s.vals[r.Reset] != 0:
				if s.vals[r.Out] != r.ResetValue {
					s.vals[r.Out] = r.ResetValue
					committed++
				}
			case !r.HasEnable() || s.vals[r.Enable] != 0:
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

	for _, r := range d.Registers {
		s.prevClock[r.Clock] = s.vals[r.Clock]
	}
	s.step++
	return nil
}

// settle sweeps the combinational network to fixpoint.
func (s *Simulator) settle() error {
	for i := 1; ; i++ {
		changed, err := s.backend.Sweep(s.vals)
		if err != nil {
			return err
		}
		if changed == 0 {
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

// findUnsettled names the first signal that still changes under one more
// sweep, for the loop diagnostic.
func (s *Simulator) findUnsettled() string {
	before := append([]uint64(nil), s.vals...)
	if _, err := s.backend.Sweep(s.vals); err != nil {
		return "<unknown>"
	}
	for i, v := range s.vals {
		if before[i] != v {
			return s.plan.Design.Signals[i].Name
		}
	}
	return "<unknown>"
}

// Reset restores construction state: all signals zero, registers at their
// reset values, the clock-edge baseline cleared and the time base rewound.
// The trace session, if any, is untouched; clearing it is a separate
// lifecycle decision.
func (s *Simulator) Reset() {
	s.initState()
	s.prevClock = nil
	s.step = 0
}
