package engine

import "github.com/hdlkit/hdlkit/internal/ir"

// evalExpr computes one expression against the value array. This is the
// reference semantics of every tag; the JIT and compiled translations must
// match it bit for bit. Values in vals are maintained masked to their
// widths, so only results that can overflow the output width are re-masked.
func evalExpr(d *ir.Design, e *ir.Expr, vals []uint64) (uint64, error) {
	outW := d.Signals[e.Out].Width
	mask := ir.Mask(outW)

	switch e.Op {
	case ir.OpConst:
		return e.Imm & mask, nil
	case ir.OpNot:
		return ^vals[e.Args[0]] & mask, nil
	case ir.OpAnd:
		return vals[e.Args[0]] & vals[e.Args[1]], nil
	case ir.OpOr:
		return vals[e.Args[0]] | vals[e.Args[1]], nil
	case ir.OpXor:
		return vals[e.Args[0]] ^ vals[e.Args[1]], nil
	case ir.OpAdd:
		return (vals[e.Args[0]] + vals[e.Args[1]]) & mask, nil
	case ir.OpSub:
		return (vals[e.Args[0]] - vals[e.Args[1]]) & mask, nil
	case ir.OpMux:
		if vals[e.Args[0]] != 0 {
			return vals[e.Args[2]], nil
		}
		return vals[e.Args[1]], nil
	case ir.OpCase:
		sel := vals[e.Args[0]]
		for i, key := range e.Cases {
			if sel == key {
				return vals[e.Args[1+i]], nil
			}
		}
		return vals[e.Args[len(e.Args)-1]], nil
	case ir.OpShl:
		amt := vals[e.Args[1]]
		if amt >= uint64(outW) {
			return 0, nil
		}
		return (vals[e.Args[0]] << amt) & mask, nil
	case ir.OpShr:
		amt := vals[e.Args[1]]
		if amt >= uint64(outW) {
			return 0, nil
		}
		return vals[e.Args[0]] >> amt, nil
	case ir.OpEq:
		if vals[e.Args[0]] == vals[e.Args[1]] {
			return 1, nil
		}
		return 0, nil
	case ir.OpLt:
		if vals[e.Args[0]] < vals[e.Args[1]] {
			return 1, nil
		}
		return 0, nil
	case ir.OpConcat:
		var acc uint64
		for _, a := range e.Args {
			acc = acc<<uint(d.Signals[a].Width) | vals[a]
		}
		return acc, nil
	case ir.OpSlice:
		return (vals[e.Args[0]] >> uint(e.Lo)) & ir.Mask(e.Hi-e.Lo+1), nil
	default:
		return 0, &BackendUnsupportedOperationError{Backend: string(BackendInterp), Op: e.Op}
	}
}
