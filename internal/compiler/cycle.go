package compiler

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// Order computes the topological evaluation order of the expression list.
// Expressions are ordered so every combinational driver evaluates before its
// readers; registers and inputs carry no edges, which is exactly why any
// feedback path must pass through a register.
//
// An expression-only cycle is reported as an ElaborationError naming a
// signal on the cycle, found via Tarjan's strongly connected components over
// the signal dependency graph.
func Order(d *ir.Design) ([]int, error) {
	// driverExpr[sig] = index of the expression driving sig, or -1.
	driverExpr := make([]int, len(d.Signals))
	for i := range driverExpr {
		driverExpr[i] = -1
	}
	for i, e := range d.Exprs {
		driverExpr[e.Out] = i
	}

	// Kahn's algorithm over expressions. deps[i] counts unevaluated
	// expression drivers feeding expression i.
	deps := make([]int, len(d.Exprs))
	readers := make([][]int, len(d.Exprs))
	for i, e := range d.Exprs {
		for _, a := range e.Args {
			if j := driverExpr[a]; j >= 0 {
				deps[i]++
				readers[j] = append(readers[j], i)
			}
		}
	}

	order := make([]int, 0, len(d.Exprs))
	queue := make([]int, 0, len(d.Exprs))
	for i, n := range deps {
		if n == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		// FIFO keeps the order a stable function of the document.
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, j := range readers[i] {
			deps[j]--
			if deps[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) == len(d.Exprs) {
		return order, nil
	}

	// Leftover expressions form at least one cycle; name a signal on it.
	name := cycleSignal(d, driverExpr)
	return nil, ElaborationErrors{{
		Code:    ErrCombinationalLoop,
		Field:   "exprs",
		Message: fmt.Sprintf("unregistered combinational cycle through signal %q", name),
	}}
}

// cycleSignal finds a signal inside a strongly connected component of the
// combinational dependency graph.
func cycleSignal(d *ir.Design, driverExpr []int) string {
	t := &tarjan{
		d:          d,
		driverExpr: driverExpr,
		index:      make([]int, len(d.Signals)),
		lowlink:    make([]int, len(d.Signals)),
		onStack:    make([]bool, len(d.Signals)),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for sig := range d.Signals {
		if t.index[sig] == -1 {
			if name := t.strongConnect(ir.SignalID(sig)); name != "" {
				return name
			}
		}
	}
	return "<unknown>"
}

// tarjan carries the state of Tarjan's SCC algorithm over signals, with
// edges from an expression's arguments to its output.
type tarjan struct {
	d          *ir.Design
	driverExpr []int
	counter    int
	stack      []ir.SignalID
	index      []int
	lowlink    []int
	onStack    []bool
}

func (t *tarjan) strongConnect(v ir.SignalID) string {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	selfLoop := false
	if ei := t.driverExpr[v]; ei >= 0 {
		for _, w := range t.d.Exprs[ei].Args {
			if w == v {
				selfLoop = true
				continue
			}
			if t.index[w] == -1 {
				if name := t.strongConnect(w); name != "" {
					return name
				}
				if t.lowlink[w] < t.lowlink[v] {
					t.lowlink[v] = t.lowlink[w]
				}
			} else if t.onStack[w] && t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []ir.SignalID
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || selfLoop {
			return t.d.Signals[scc[0]].Name
		}
	}
	return ""
}
