package compiler

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// Plan is a validated design plus everything the engine precomputes once at
// construction: the read-only name index, the topological evaluation order
// and the content hash. The design behind a Plan must never be mutated.
type Plan struct {
	Design    *ir.Design
	ByName    map[string]ir.SignalID
	EvalOrder []int
	Hash      string
}

// Compile validates a design and fixes its evaluation plan. This is the only
// door into simulation: every backend receives a Plan, never a raw Design.
func Compile(d *ir.Design) (*Plan, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, errs
	}
	order, err := Order(d)
	if err != nil {
		return nil, err
	}
	hash, err := ir.DesignHash(d)
	if err != nil {
		return nil, fmt.Errorf("hashing design %q: %w", d.Name, err)
	}
	return &Plan{
		Design:    d,
		ByName:    d.SignalByName(),
		EvalOrder: order,
		Hash:      hash,
	}, nil
}
