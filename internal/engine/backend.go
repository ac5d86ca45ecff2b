package engine

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/compiler"
)

// BackendKind selects an execution strategy at construction time.
type BackendKind string

const (
	// BackendInterp re-walks the expression list every sweep. No warm-up
	// cost, lowest steady-state throughput, and the correctness oracle for
	// the other two.
	BackendInterp BackendKind = "interp"
	// BackendJIT translates the expression list into closures on first use.
	BackendJIT BackendKind = "jit"
	// BackendCompiled translates ahead of time into a standalone Program.
	BackendCompiled BackendKind = "compiled"
)

// Kinds lists every backend, interpreter first. The differential harness
// iterates this slice, so registering a backend here is what puts it under
// the parity regression gate.
var Kinds = []BackendKind{BackendInterp, BackendJIT, BackendCompiled}

// Backend is the single evaluation contract all strategies implement:
// one sweep of the combinational network in topological order over the
// flat value array, returning how many value slots changed.
//
// Sweep must be deterministic and must write only expression outputs:
// inputs and register state belong to the Simulator.
type Backend interface {
	Name() string
	Sweep(vals []uint64) (changed int, err error)
}

// newBackend constructs the chosen strategy over a compiled plan.
func newBackend(kind BackendKind, plan *compiler.Plan) (Backend, error) {
	switch kind {
	case BackendInterp:
		return newInterp(plan), nil
	case BackendJIT:
		return newJIT(plan), nil
	case BackendCompiled:
		prog, err := Translate(plan)
		if err != nil {
			return nil, err
		}
		return newCompiled(prog), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}
