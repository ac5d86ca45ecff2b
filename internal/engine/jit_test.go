package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/testutil"
)

func TestJITTranslatesOnce(t *testing.T) {
	s, err := New(testutil.ALU(), WithBackend(BackendJIT))
	require.NoError(t, err)

	j, ok := s.backend.(*jit)
	require.True(t, ok)
	assert.Nil(t, j.units, "translation is deferred until the first sweep")

	require.NoError(t, s.Propagate())
	first := j.units
	require.NotNil(t, first)

	require.NoError(t, s.Propagate())
	assert.Equal(t, len(first), len(j.units))
}

func TestJITRejectsUnknownTag(t *testing.T) {
	b := testutil.NewDesign("bad")
	out := b.Signal("out", 1, ir.KindInternal)
	b.RawExpr(ir.Expr{Op: "nand3", Out: out})
	d := b.Design()
	plan := &compiler.Plan{Design: d, ByName: d.SignalByName(), EvalOrder: []int{0}}

	j := newJIT(plan)
	_, err := j.Sweep(make([]uint64, len(d.Signals)))
	require.Error(t, err)
	assert.True(t, IsBackendUnsupported(err))

	var ue *BackendUnsupportedOperationError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "jit", ue.Backend)
	assert.Equal(t, ir.Op("nand3"), ue.Op)
}

func TestInterpRejectsUnknownTag(t *testing.T) {
	b := testutil.NewDesign("bad")
	out := b.Signal("out", 1, ir.KindInternal)
	b.RawExpr(ir.Expr{Op: "nand3", Out: out})
	d := b.Design()
	plan := &compiler.Plan{Design: d, ByName: d.SignalByName(), EvalOrder: []int{0}}

	in := newInterp(plan)
	_, err := in.Sweep(make([]uint64, len(d.Signals)))
	require.Error(t, err)
	assert.True(t, IsBackendUnsupported(err))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(testutil.Counter(4), WithBackend("fpga"))
	assert.Error(t, err)
}
