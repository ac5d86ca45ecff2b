package engine

import (
	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
)

// evalUnit is one reusable translated expression: a closure over
// precomputed signal indexes and masks, writing a single output slot.
type evalUnit struct {
	out ir.SignalID
	fn  func(vals []uint64) uint64
}

// jit translates the expression list into evalUnits once, on first Sweep,
// then amortizes that cost over every subsequent call. Translation happens
// lazily so constructing a simulator stays cheap for short-lived sessions.
type jit struct {
	plan  *compiler.Plan
	units []evalUnit
}

func newJIT(plan *compiler.Plan) *jit {
	return &jit{plan: plan}
}

func (b *jit) Name() string { return string(BackendJIT) }

func (b *jit) Sweep(vals []uint64) (int, error) {
	if b.units == nil {
		units, err := b.translate()
		if err != nil {
			return 0, err
		}
		b.units = units
	}
	changed := 0
	for i := range b.units {
		u := &b.units[i]
		if v := u.fn(vals); vals[u.out] != v {
			vals[u.out] = v
			changed++
		}
	}
	return changed, nil
}

// translate compiles every expression, in evaluation order, into a closure.
// Closures capture plain ints and masks, never the design, so a translated
// unit performs no map lookups or width math at run time.
func (b *jit) translate() ([]evalUnit, error) {
	d := b.plan.Design
	units := make([]evalUnit, 0, len(d.Exprs))
	for _, ei := range b.plan.EvalOrder {
		e := &d.Exprs[ei]
		fn, err := b.translateExpr(e)
		if err != nil {
			return nil, err
		}
		units = append(units, evalUnit{out: e.Out, fn: fn})
	}
	return units, nil
}

func (b *jit) translateExpr(e *ir.Expr) (func([]uint64) uint64, error) {
	d := b.plan.Design
	outW := d.Signals[e.Out].Width
	mask := ir.Mask(outW)

	switch e.Op {
	case ir.OpConst:
		v := e.Imm & mask
		return func([]uint64) uint64 { return v }, nil
	case ir.OpNot:
		a := e.Args[0]
		return func(vals []uint64) uint64 { return ^vals[a] & mask }, nil
	case ir.OpAnd:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 { return vals[x] & vals[y] }, nil
	case ir.OpOr:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 { return vals[x] | vals[y] }, nil
	case ir.OpXor:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 { return vals[x] ^ vals[y] }, nil
	case ir.OpAdd:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 { return (vals[x] + vals[y]) & mask }, nil
	case ir.OpSub:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 { return (vals[x] - vals[y]) & mask }, nil
	case ir.OpMux:
		sel, x, y := e.Args[0], e.Args[1], e.Args[2]
		return func(vals []uint64) uint64 {
			if vals[sel] != 0 {
				return vals[y]
			}
			return vals[x]
		}, nil
	case ir.OpCase:
		sel := e.Args[0]
		keys := append([]uint64(nil), e.Cases...)
		branches := append([]ir.SignalID(nil), e.Args[1:]...)
		def := branches[len(branches)-1]
		branches = branches[:len(branches)-1]
		return func(vals []uint64) uint64 {
			s := vals[sel]
			for i, key := range keys {
				if s == key {
					return vals[branches[i]]
				}
			}
			return vals[def]
		}, nil
	case ir.OpShl:
		x, amt := e.Args[0], e.Args[1]
		w := uint64(outW)
		return func(vals []uint64) uint64 {
			n := vals[amt]
			if n >= w {
				return 0
			}
			return (vals[x] << n) & mask
		}, nil
	case ir.OpShr:
		x, amt := e.Args[0], e.Args[1]
		w := uint64(outW)
		return func(vals []uint64) uint64 {
			n := vals[amt]
			if n >= w {
				return 0
			}
			return vals[x] >> n
		}, nil
	case ir.OpEq:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 {
			if vals[x] == vals[y] {
				return 1
			}
			return 0
		}, nil
	case ir.OpLt:
		x, y := e.Args[0], e.Args[1]
		return func(vals []uint64) uint64 {
			if vals[x] < vals[y] {
				return 1
			}
			return 0
		}, nil
	case ir.OpConcat:
		args := append([]ir.SignalID(nil), e.Args...)
		shifts := make([]uint, len(args))
		for i, a := range args {
			shifts[i] = uint(d.Signals[a].Width)
		}
		return func(vals []uint64) uint64 {
			var acc uint64
			for i, a := range args {
				acc = acc<<shifts[i] | vals[a]
			}
			return acc
		}, nil
	case ir.OpSlice:
		a := e.Args[0]
		lo := uint(e.Lo)
		sliceMask := ir.Mask(e.Hi - e.Lo + 1)
		return func(vals []uint64) uint64 { return vals[a] >> lo & sliceMask }, nil
	default:
		return nil, &BackendUnsupportedOperationError{Backend: b.Name(), Op: e.Op}
	}
}
