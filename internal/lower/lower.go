package lower

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
)

// Lowered is the gate-level rendition of a word-level design.
type Lowered struct {
	Design *ir.Design
	Ports  PortMap
}

// Lower bit-blasts a validated word-level design. Port and register nets get
// stable names ("count.b3"); intermediate gate outputs get fresh ones. The
// returned design uses only const, not, and, or and xor expressions and
// 1-bit registers.
func Lower(src *ir.Design) (*Lowered, error) {
	plan, err := compiler.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("lowering %q: %w", src.Name, err)
	}

	l := &lowerer{
		src:   src,
		dst:   &ir.Design{Name: src.Name},
		bits:  make(map[ir.SignalID][]ir.SignalID, len(src.Signals)),
		ports: make(PortMap),
		k0:    ir.NoSignal,
		k1:    ir.NoSignal,
	}

	for _, name := range src.Inputs {
		id := plan.ByName[name]
		w := src.Signals[id].Width
		vec := make([]ir.SignalID, w)
		names := make([]string, w)
		for i := range vec {
			names[i] = bitName(name, i)
			vec[i] = l.net(names[i], ir.KindInput)
			l.dst.Inputs = append(l.dst.Inputs, names[i])
		}
		l.bits[id] = vec
		l.ports[name] = names
	}

	// Register state nets exist before expression lowering so feedback
	// paths resolve.
	for _, r := range src.Registers {
		sig := src.Signals[r.Out]
		vec := make([]ir.SignalID, sig.Width)
		names := make([]string, sig.Width)
		for i := range vec {
			names[i] = bitName(sig.Name, i)
			vec[i] = l.net(names[i], ir.KindState)
		}
		l.bits[r.Out] = vec
		l.ports[sig.Name] = names
	}

	for _, ei := range plan.EvalOrder {
		e := &src.Exprs[ei]
		vec, err := l.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		out := src.Signals[e.Out]
		if out.Kind == ir.KindOutput {
			// Output ports need stably named driven nets, so each result
			// bit gets a buffer gate onto one.
			named := make([]ir.SignalID, len(vec))
			names := make([]string, len(vec))
			for i, b := range vec {
				names[i] = bitName(out.Name, i)
				named[i] = l.net(names[i], ir.KindOutput)
				l.emit(ir.Expr{Op: ir.OpAnd, Args: []ir.SignalID{b, b}, Out: named[i]})
			}
			vec = named
			l.ports[out.Name] = names
		}
		l.bits[e.Out] = vec
	}

	for _, name := range src.Outputs {
		l.dst.Outputs = append(l.dst.Outputs, l.ports[name]...)
	}

	for _, r := range src.Registers {
		data := l.bits[r.Data]
		clock := l.bits[r.Clock][0]
		reset, enable := ir.NoSignal, ir.NoSignal
		if r.HasReset() {
			reset = l.bits[r.Reset][0]
		}
		if r.HasEnable() {
			enable = l.bits[r.Enable][0]
		}
		for i, out := range l.bits[r.Out] {
			l.dst.Registers = append(l.dst.Registers, ir.Register{
				Data:       data[i],
				Clock:      clock,
				Reset:      reset,
				Enable:     enable,
				ResetValue: r.ResetValue >> uint(i) & 1,
				Out:        out,
			})
		}
	}

	return &Lowered{Design: l.dst, Ports: l.ports}, nil
}

func bitName(name string, i int) string {
	return fmt.Sprintf("%s.b%d", name, i)
}

type lowerer struct {
	src   *ir.Design
	dst   *ir.Design
	bits  map[ir.SignalID][]ir.SignalID
	ports PortMap
	seq   int

	// Shared constant nets, created on demand.
	k0, k1 ir.SignalID
}

func (l *lowerer) net(name string, kind ir.Kind) ir.SignalID {
	id := ir.SignalID(len(l.dst.Signals))
	l.dst.Signals = append(l.dst.Signals, ir.Signal{ID: id, Name: name, Width: 1, Kind: kind})
	return id
}

func (l *lowerer) emit(e ir.Expr) {
	l.dst.Exprs = append(l.dst.Exprs, e)
}

func (l *lowerer) fresh(prefix string) ir.SignalID {
	l.seq++
	return l.net(fmt.Sprintf("%s.t%d", prefix, l.seq), ir.KindInternal)
}

func (l *lowerer) gate(op ir.Op, prefix string, args ...ir.SignalID) ir.SignalID {
	out := l.fresh(prefix)
	l.emit(ir.Expr{Op: op, Args: args, Out: out})
	return out
}

func (l *lowerer) constBit(v uint64) ir.SignalID {
	if v&1 == 0 {
		if l.k0 == ir.NoSignal {
			l.k0 = l.net("k0", ir.KindInternal)
			l.emit(ir.Expr{Op: ir.OpConst, Out: l.k0, Imm: 0})
		}
		return l.k0
	}
	if l.k1 == ir.NoSignal {
		l.k1 = l.net("k1", ir.KindInternal)
		l.emit(ir.Expr{Op: ir.OpConst, Out: l.k1, Imm: 1})
	}
	return l.k1
}

// lowerExpr produces the bit vector (LSB first) computing one word-level
// expression.
func (l *lowerer) lowerExpr(e *ir.Expr) ([]ir.SignalID, error) {
	prefix := l.src.Signals[e.Out].Name
	outW := l.src.Signals[e.Out].Width

	switch e.Op {
	case ir.OpConst:
		vec := make([]ir.SignalID, outW)
		for i := range vec {
			vec[i] = l.constBit(e.Imm >> uint(i))
		}
		return vec, nil

	case ir.OpNot:
		a := l.bits[e.Args[0]]
		vec := make([]ir.SignalID, len(a))
		for i := range vec {
			vec[i] = l.gate(ir.OpNot, prefix, a[i])
		}
		return vec, nil

	case ir.OpAnd, ir.OpOr, ir.OpXor:
		a, b := l.bits[e.Args[0]], l.bits[e.Args[1]]
		vec := make([]ir.SignalID, len(a))
		for i := range vec {
			vec[i] = l.gate(e.Op, prefix, a[i], b[i])
		}
		return vec, nil

	case ir.OpAdd:
		a, b := l.bits[e.Args[0]], l.bits[e.Args[1]]
		sum, carry := l.ripple(prefix, a, b, l.constBit(0))
		if outW == len(a)+1 {
			sum = append(sum, carry)
		}
		return sum, nil

	case ir.OpSub:
		// a - b = a + ^b + 1.
		a, b := l.bits[e.Args[0]], l.bits[e.Args[1]]
		nb := make([]ir.SignalID, len(b))
		for i := range nb {
			nb[i] = l.gate(ir.OpNot, prefix, b[i])
		}
		sum, _ := l.ripple(prefix, a, nb, l.constBit(1))
		return sum, nil

	case ir.OpMux:
		sel := l.bits[e.Args[0]][0]
		return l.muxVec(prefix, sel, l.bits[e.Args[1]], l.bits[e.Args[2]]), nil

	case ir.OpCase:
		sel := l.bits[e.Args[0]]
		acc := l.bits[e.Args[len(e.Args)-1]]
		// Folding from the last key outward makes the first key the
		// outermost mux, preserving first-match-wins on duplicate keys.
		for i := len(e.Cases) - 1; i >= 0; i-- {
			m := l.matchKey(prefix, sel, e.Cases[i])
			acc = l.muxVec(prefix, m, acc, l.bits[e.Args[1+i]])
		}
		return acc, nil

	case ir.OpShl, ir.OpShr:
		return l.shift(prefix, e.Op, l.bits[e.Args[0]], l.bits[e.Args[1]]), nil

	case ir.OpEq:
		a, b := l.bits[e.Args[0]], l.bits[e.Args[1]]
		var acc ir.SignalID = ir.NoSignal
		for i := range a {
			eq := l.gate(ir.OpNot, prefix, l.gate(ir.OpXor, prefix, a[i], b[i]))
			if acc == ir.NoSignal {
				acc = eq
			} else {
				acc = l.gate(ir.OpAnd, prefix, acc, eq)
			}
		}
		return []ir.SignalID{acc}, nil

	case ir.OpLt:
		// Unsigned compare, LSB to MSB: a lower bit's verdict survives only
		// while the higher bits are equal.
		a, b := l.bits[e.Args[0]], l.bits[e.Args[1]]
		lt := l.constBit(0)
		for i := range a {
			na := l.gate(ir.OpNot, prefix, a[i])
			below := l.gate(ir.OpAnd, prefix, na, b[i])
			eq := l.gate(ir.OpNot, prefix, l.gate(ir.OpXor, prefix, a[i], b[i]))
			lt = l.gate(ir.OpOr, prefix, below, l.gate(ir.OpAnd, prefix, eq, lt))
		}
		return []ir.SignalID{lt}, nil

	case ir.OpConcat:
		// The first argument lands in the high bits, so the LSB-first
		// vector assembles from the last argument backwards.
		var vec []ir.SignalID
		for i := len(e.Args) - 1; i >= 0; i-- {
			vec = append(vec, l.bits[e.Args[i]]...)
		}
		return vec, nil

	case ir.OpSlice:
		return l.bits[e.Args[0]][e.Lo : e.Hi+1], nil

	default:
		return nil, fmt.Errorf("lowering %q: no gate rendition for %q", l.src.Name, e.Op)
	}
}

// ripple builds a ripple-carry adder over equal-width vectors and returns
// the sum bits plus the final carry-out.
func (l *lowerer) ripple(prefix string, a, b []ir.SignalID, cin ir.SignalID) ([]ir.SignalID, ir.SignalID) {
	sum := make([]ir.SignalID, len(a))
	for i := range a {
		axb := l.gate(ir.OpXor, prefix, a[i], b[i])
		sum[i] = l.gate(ir.OpXor, prefix, axb, cin)
		cin = l.gate(ir.OpOr, prefix,
			l.gate(ir.OpAnd, prefix, a[i], b[i]),
			l.gate(ir.OpAnd, prefix, cin, axb))
	}
	return sum, cin
}

// muxVec selects b when sel is high, a otherwise.
func (l *lowerer) muxVec(prefix string, sel ir.SignalID, a, b []ir.SignalID) []ir.SignalID {
	ns := l.gate(ir.OpNot, prefix, sel)
	vec := make([]ir.SignalID, len(a))
	for i := range vec {
		vec[i] = l.gate(ir.OpOr, prefix,
			l.gate(ir.OpAnd, prefix, ns, a[i]),
			l.gate(ir.OpAnd, prefix, sel, b[i]))
	}
	return vec
}

// matchKey reduces sel == key to one net by AND-chaining each bit matched
// against the key's literal.
func (l *lowerer) matchKey(prefix string, sel []ir.SignalID, key uint64) ir.SignalID {
	var acc ir.SignalID = ir.NoSignal
	for i, s := range sel {
		lit := s
		if key>>uint(i)&1 == 0 {
			lit = l.gate(ir.OpNot, prefix, s)
		}
		if acc == ir.NoSignal {
			acc = lit
		} else {
			acc = l.gate(ir.OpAnd, prefix, acc, lit)
		}
	}
	return acc
}

// shift builds a logarithmic mux network: stage k shifts by 2^k when amount
// bit k is set. Zeros shift in from either end, so any amount at or past the
// width naturally drains the vector to zero.
func (l *lowerer) shift(prefix string, op ir.Op, a, amt []ir.SignalID) []ir.SignalID {
	w := len(a)
	cur := append([]ir.SignalID(nil), a...)
	for k, ab := range amt {
		step := 1 << uint(k)
		if step >= w {
			// Shifting by this stage clears everything; keep cur only while
			// the amount bit is low.
			nab := l.gate(ir.OpNot, prefix, ab)
			for i := range cur {
				cur[i] = l.gate(ir.OpAnd, prefix, nab, cur[i])
			}
			continue
		}
		shifted := make([]ir.SignalID, w)
		for i := range shifted {
			var from int
			if op == ir.OpShl {
				from = i - step
			} else {
				from = i + step
			}
			if from >= 0 && from < w {
				shifted[i] = cur[from]
			} else {
				shifted[i] = l.constBit(0)
			}
		}
		cur = l.muxVec(prefix, ab, cur, shifted)
	}
	return cur
}
