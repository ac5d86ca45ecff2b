package testutil

import "github.com/hdlkit/hdlkit/internal/ir"

// Counter builds a width-bit up counter with synchronous reset:
// ports clk, rst in; count out.
func Counter(width int) *ir.Design {
	b := NewDesign("counter")
	clk := b.Input("clk", 1)
	rst := b.Input("rst", 1)
	count := b.State("count", width)
	one := b.Const("one", width, 1)
	next := b.Add("next", count, one)
	b.Clocked(count, next, clk, rst, ir.NoSignal, 0)
	b.Export(count)
	return b.Design()
}

// Adder builds a width-bit adder with carry out: ports a, b in; sum is
// width+1 bits with the carry in the top bit, also exposed as carry (1 bit)
// and result (width bits).
func Adder(width int) *ir.Design {
	b := NewDesign("adder")
	a := b.Input("a", width)
	c := b.Input("b", width)
	sum := b.AddC("sum", a, c)
	result := b.Slice("result", sum, 0, width-1)
	carry := b.Slice("carry", sum, width, width)
	b.Export(result)
	b.Export(carry)
	return b.Design()
}

// Mux2 builds a 2:1 mux over width-bit inputs: sel=0 routes a, sel=1
// routes b.
func Mux2(width int) *ir.Design {
	b := NewDesign("mux2")
	sel := b.Input("sel", 1)
	a := b.Input("a", width)
	c := b.Input("b", width)
	out := b.Mux("out", sel, a, c)
	b.Export(out)
	return b.Design()
}

// CaseUnit builds a 4-way case select over a 2-bit selector with distinct
// constant branches and a default, exercising first-match-wins lowering.
func CaseUnit(width int) *ir.Design {
	b := NewDesign("caseunit")
	sel := b.Input("sel", 2)
	br0 := b.Input("v0", width)
	br1 := b.Input("v1", width)
	br2 := b.Input("v2", width)
	def := b.Input("vd", width)
	out := b.Case("out", sel, []uint64{0, 1, 2}, []ir.SignalID{br0, br1, br2}, def)
	b.Export(out)
	return b.Design()
}

// ALU builds a small arithmetic unit touching every expression tag, the
// workhorse fixture for backend parity and gate-lowering equivalence:
// ports op(2), a(4), b(4) in; out(4), flag(1) out.
func ALU() *ir.Design {
	b := NewDesign("alu")
	op := b.Input("op", 2)
	a := b.Input("a", 4)
	c := b.Input("b", 4)

	sum := b.Add("sum", a, c)
	diff := b.Bin(ir.OpSub, "diff", a, c)
	band := b.Bin(ir.OpAnd, "band", a, c)
	bxor := b.Bin(ir.OpXor, "bxor", a, c)
	bor := b.Bin(ir.OpOr, "bor", a, c)
	inv := b.Not("inv", bor)

	amt := b.Slice("amt", c, 0, 2)
	shl := b.Bin(ir.OpShl, "shl", a, amt)
	shr := b.Bin(ir.OpShr, "shr", bxor, amt)
	mixed := b.Bin(ir.OpOr, "mixed", shl, shr)

	lo := b.Slice("alo", a, 0, 1)
	hi := b.Slice("ahi", a, 2, 3)
	swapped := b.Concat("swapped", lo, hi)

	out := b.Case("out", op,
		[]uint64{0, 1, 2},
		[]ir.SignalID{sum, diff, band},
		swapped)

	eq := b.Cmp(ir.OpEq, "eq", a, c)
	lt := b.Cmp(ir.OpLt, "lt", a, c)
	selHi := b.Slice("ophi", op, 1, 1)
	flag := b.Mux("flag", selHi, eq, lt)
	aux := b.Bin(ir.OpXor, "aux", mixed, inv)

	b.Export(out)
	b.Export(flag)
	b.Export(aux)
	return b.Design()
}
