package engine

import "github.com/hdlkit/hdlkit/internal/compiler"

// interp is the tree-walking backend: every sweep re-dispatches on each
// expression tag. It carries no translated state at all, which is what
// qualifies it as the oracle the other backends are diffed against.
type interp struct {
	plan *compiler.Plan
}

func newInterp(plan *compiler.Plan) *interp {
	return &interp{plan: plan}
}

func (b *interp) Name() string { return string(BackendInterp) }

func (b *interp) Sweep(vals []uint64) (int, error) {
	d := b.plan.Design
	changed := 0
	for _, ei := range b.plan.EvalOrder {
		e := &d.Exprs[ei]
		v, err := evalExpr(d, e, vals)
		if err != nil {
			return changed, err
		}
		if vals[e.Out] != v {
			vals[e.Out] = v
			changed++
		}
	}
	return changed, nil
}
