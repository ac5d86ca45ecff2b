package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/testutil"
)

func TestOrderRespectsDependencies(t *testing.T) {
	d := testutil.ALU()
	order, err := Order(d)
	require.NoError(t, err)
	require.Len(t, order, len(d.Exprs))

	// Every expression must appear after the expressions driving its args.
	pos := make(map[int]int, len(order))
	for p, ei := range order {
		pos[ei] = p
	}
	driver := make(map[ir.SignalID]int)
	for i, e := range d.Exprs {
		driver[e.Out] = i
	}
	for i, e := range d.Exprs {
		for _, a := range e.Args {
			if j, ok := driver[a]; ok {
				assert.Less(t, pos[j], pos[i],
					"expr %d must evaluate before expr %d", j, i)
			}
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	d := testutil.ALU()
	first, err := Order(d)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Order(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOrderDetectsCombinationalCycle(t *testing.T) {
	// x = not y, y = not x: feedback with no register in the path.
	b := testutil.NewDesign("loop")
	x := b.Signal("x", 1, ir.KindInternal)
	y := b.Signal("y", 1, ir.KindInternal)
	b.RawExpr(ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{y}, Out: x})
	b.RawExpr(ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{x}, Out: y})

	_, err := Order(b.Design())
	require.Error(t, err)
	assert.True(t, IsElaborationError(err))

	var errs ElaborationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, ErrCombinationalLoop, errs[0].Code)
	// The diagnostic must name a signal on the cycle.
	assert.Regexp(t, `"(x|y)"`, errs[0].Message)
}

func TestOrderSelfLoop(t *testing.T) {
	b := testutil.NewDesign("selfloop")
	x := b.Signal("x", 1, ir.KindInternal)
	b.RawExpr(ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{x}, Out: x})

	_, err := Order(b.Design())
	require.Error(t, err)
	var errs ElaborationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs[0].Message, `"x"`)
}

func TestOrderAllowsRegisteredFeedback(t *testing.T) {
	// The counter's next-value expression reads the register it feeds;
	// the register breaks the cycle.
	_, err := Order(testutil.Counter(8))
	assert.NoError(t, err)
}

func TestCompile(t *testing.T) {
	t.Run("valid design", func(t *testing.T) {
		d := testutil.Adder(8)
		plan, err := Compile(d)
		require.NoError(t, err)
		assert.Same(t, d, plan.Design)
		assert.Len(t, plan.EvalOrder, len(d.Exprs))
		assert.Len(t, plan.ByName, len(d.Signals))
		assert.Len(t, plan.Hash, 64)
	})

	t.Run("invalid design is rejected before ordering", func(t *testing.T) {
		d := testutil.Adder(8)
		d.Signals[0].Width = 0
		_, err := Compile(d)
		require.Error(t, err)
		assert.True(t, IsElaborationError(err))
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		b := testutil.NewDesign("loop")
		x := b.Signal("x", 1, ir.KindInternal)
		y := b.Signal("y", 1, ir.KindInternal)
		b.RawExpr(ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{y}, Out: x})
		b.RawExpr(ir.Expr{Op: ir.OpNot, Args: []ir.SignalID{x}, Out: y})
		_, err := Compile(b.Design())
		require.Error(t, err)
		assert.True(t, IsElaborationError(err))
	})
}
