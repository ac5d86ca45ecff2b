package engine

// compiled executes a pre-translated Program tape. Translation happened at
// construction (or in an earlier process entirely); Sweep is a single pass
// over flat instructions with no design graph in sight.
type compiled struct {
	prog *Program
}

func newCompiled(prog *Program) *compiled {
	return &compiled{prog: prog}
}

func (b *compiled) Name() string { return string(BackendCompiled) }

func (b *compiled) Sweep(vals []uint64) (int, error) {
	return b.prog.Run(vals), nil
}

// Artifact exposes the translated program, letting callers persist it for
// later LoadProgram runs.
func (b *compiled) Artifact() *Program { return b.prog }
