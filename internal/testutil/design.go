// Package testutil provides deterministic design builders shared by test
// packages. Production code must not import it.
package testutil

import "github.com/hdlkit/hdlkit/internal/ir"

// Builder assembles a flat design arena incrementally. It is test-only
// scaffolding for the out-of-scope elaborator: every helper allocates the
// output signal, wires the expression and returns the new signal ID.
type Builder struct {
	d *ir.Design
}

// NewDesign starts an empty design.
func NewDesign(name string) *Builder {
	return &Builder{d: &ir.Design{Name: name}}
}

// Design returns the assembled document.
func (b *Builder) Design() *ir.Design { return b.d }

// Signal allocates a raw signal.
func (b *Builder) Signal(name string, width int, kind ir.Kind) ir.SignalID {
	id := ir.SignalID(len(b.d.Signals))
	b.d.Signals = append(b.d.Signals, ir.Signal{ID: id, Name: name, Width: width, Kind: kind})
	return id
}

// Input allocates an input port signal.
func (b *Builder) Input(name string, width int) ir.SignalID {
	id := b.Signal(name, width, ir.KindInput)
	b.d.Inputs = append(b.d.Inputs, name)
	return id
}

// Export marks an existing signal as an output port. Internal signals become
// kind "output"; register state keeps kind "state".
func (b *Builder) Export(id ir.SignalID) {
	s := &b.d.Signals[id]
	if s.Kind == ir.KindInternal {
		s.Kind = ir.KindOutput
	}
	b.d.Outputs = append(b.d.Outputs, s.Name)
}

func (b *Builder) expr(name string, width int, e ir.Expr) ir.SignalID {
	out := b.Signal(name, width, ir.KindInternal)
	e.Out = out
	b.d.Exprs = append(b.d.Exprs, e)
	return out
}

func (b *Builder) width(id ir.SignalID) int { return b.d.Signals[id].Width }

// Const drives a literal value.
func (b *Builder) Const(name string, width int, v uint64) ir.SignalID {
	return b.expr(name, width, ir.Expr{Op: ir.OpConst, Imm: v})
}

// Not drives the bitwise complement of a.
func (b *Builder) Not(name string, a ir.SignalID) ir.SignalID {
	return b.expr(name, b.width(a), ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{a}})
}

// Bin drives a two-operand expression whose output width equals the first
// operand's width (and, or, xor, sub, shl, shr).
func (b *Builder) Bin(op ir.Op, name string, x, y ir.SignalID) ir.SignalID {
	return b.expr(name, b.width(x), ir.Expr{Op: op, Args: []ir.SignalID{x, y}})
}

// Add drives x+y at the operand width (carry discarded).
func (b *Builder) Add(name string, x, y ir.SignalID) ir.SignalID {
	return b.Bin(ir.OpAdd, name, x, y)
}

// AddC drives x+y one bit wider, so the top bit is the carry out.
func (b *Builder) AddC(name string, x, y ir.SignalID) ir.SignalID {
	return b.expr(name, b.width(x)+1, ir.Expr{Op: ir.OpAdd, Args: []ir.SignalID{x, y}})
}

// Cmp drives an eq or lt comparison (width 1).
func (b *Builder) Cmp(op ir.Op, name string, x, y ir.SignalID) ir.SignalID {
	return b.expr(name, 1, ir.Expr{Op: op, Args: []ir.SignalID{x, y}})
}

// Mux drives a 2:1 select: sel=0 picks a, sel=1 picks b.
func (b *Builder) Mux(name string, sel, a, c ir.SignalID) ir.SignalID {
	return b.expr(name, b.width(a), ir.Expr{Op: ir.OpMux, Args: []ir.SignalID{sel, a, c}})
}

// Case drives a first-match-wins select over keys, with a default branch.
func (b *Builder) Case(name string, sel ir.SignalID, keys []uint64, branches []ir.SignalID, def ir.SignalID) ir.SignalID {
	args := append([]ir.SignalID{sel}, branches...)
	args = append(args, def)
	return b.expr(name, b.width(def), ir.Expr{Op: ir.OpCase, Args: args, Cases: keys})
}

// Slice drives bits lo..hi (inclusive) of a.
func (b *Builder) Slice(name string, a ir.SignalID, lo, hi int) ir.SignalID {
	return b.expr(name, hi-lo+1, ir.Expr{Op: ir.OpSlice, Args: []ir.SignalID{a}, Lo: lo, Hi: hi})
}

// Concat drives the concatenation of args, first argument in the high bits.
func (b *Builder) Concat(name string, args ...ir.SignalID) ir.SignalID {
	w := 0
	for _, a := range args {
		w += b.width(a)
	}
	return b.expr(name, w, ir.Expr{Op: ir.OpConcat, Args: args})
}

// State allocates a register state signal. Wire its data input with Clocked
// once the (possibly feedback) data expression exists.
func (b *Builder) State(name string, width int) ir.SignalID {
	return b.Signal(name, width, ir.KindState)
}

// Clocked appends the register record committing data into state on clk
// rising edges. Pass ir.NoSignal for rst or en to omit them.
func (b *Builder) Clocked(state, data, clk, rst, en ir.SignalID, resetVal uint64) {
	b.d.Registers = append(b.d.Registers, ir.Register{
		Data:       data,
		Clock:      clk,
		Reset:      rst,
		Enable:     en,
		ResetValue: resetVal,
		Out:        state,
	})
}

// RawExpr appends an expression verbatim, for tests that need malformed or
// unusual shapes the helpers refuse to build.
func (b *Builder) RawExpr(e ir.Expr) {
	b.d.Exprs = append(b.d.Exprs, e)
}
