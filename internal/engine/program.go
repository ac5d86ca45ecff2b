package engine

import (
	"encoding/json"
	"fmt"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
)

// OpCode tags one compiled instruction. The compiled tape mirrors the IR
// tag set one to one; translation is a switch, execution is a switch, and
// nothing in between may change semantics.
type OpCode uint8

const (
	PConst OpCode = iota
	PNot
	PAnd
	POr
	PXor
	PAdd
	PSub
	PMux
	PCase
	PShl
	PShr
	PEq
	PLt
	PConcat
	PSlice
)

// Instr is one tape entry. Operand slots index the flat value array; every
// width has already been folded into Mask/Imm/Shifts at translation time so
// execution never consults the design.
type Instr struct {
	Code OpCode `json:"code"`
	Out  int    `json:"out"`
	Args []int  `json:"args,omitempty"`
	// Imm holds the literal for PConst, the slice shift for PSlice and the
	// output width bound for PShl/PShr.
	Imm  uint64 `json:"imm,omitempty"`
	Mask uint64 `json:"mask"`
	// Keys holds PCase match keys, one per branch operand.
	Keys []uint64 `json:"keys,omitempty"`
	// Shifts holds PConcat operand widths, high operand first.
	Shifts []uint `json:"shifts,omitempty"`
}

// RegPlan is the compiled commit rule for one register. Reset and Enable
// are -1 when absent.
type RegPlan struct {
	Data       int    `json:"data"`
	Clock      int    `json:"clock"`
	Reset      int    `json:"reset"`
	Enable     int    `json:"enable"`
	ResetValue uint64 `json:"reset_value,omitempty"`
	Out        int    `json:"out"`
	Mask       uint64 `json:"mask"`
}

// Program is the ahead-of-time translation artifact: everything needed to
// simulate the design without the expression graph. It serializes to JSON
// so long batch runs can load a previously translated design directly.
type Program struct {
	Name       string      `json:"name"`
	DesignHash string      `json:"design_hash"`
	Signals    []ir.Signal `json:"signals"`
	Inputs     []string    `json:"inputs"`
	Outputs    []string    `json:"outputs"`
	Code       []Instr     `json:"code"`
	Regs       []RegPlan   `json:"regs"`
}

// Translate compiles a plan into a Program. The tape is emitted in the
// plan's topological order, so one execution pass settles an acyclic
// network exactly like one interpreter sweep.
func Translate(plan *compiler.Plan) (*Program, error) {
	d := plan.Design
	prog := &Program{
		Name:       d.Name,
		DesignHash: plan.Hash,
		Signals:    append([]ir.Signal(nil), d.Signals...),
		Inputs:     append([]string(nil), d.Inputs...),
		Outputs:    append([]string(nil), d.Outputs...),
		Code:       make([]Instr, 0, len(d.Exprs)),
		Regs:       make([]RegPlan, 0, len(d.Registers)),
	}
	for _, ei := range plan.EvalOrder {
		in, err := translateInstr(d, &d.Exprs[ei])
		if err != nil {
			return nil, err
		}
		prog.Code = append(prog.Code, in)
	}
	for _, r := range d.Registers {
		prog.Regs = append(prog.Regs, RegPlan{
			Data:       int(r.Data),
			Clock:      int(r.Clock),
			Reset:      int(r.Reset),
			Enable:     int(r.Enable),
			ResetValue: r.ResetValue,
			Out:        int(r.Out),
			Mask:       ir.Mask(d.Signals[r.Out].Width),
		})
	}
	return prog, nil
}

func translateInstr(d *ir.Design, e *ir.Expr) (Instr, error) {
	outW := d.Signals[e.Out].Width
	in := Instr{Out: int(e.Out), Mask: ir.Mask(outW)}
	args := make([]int, len(e.Args))
	for i, a := range e.Args {
		args[i] = int(a)
	}
	in.Args = args

	switch e.Op {
	case ir.OpConst:
		in.Code = PConst
		in.Imm = e.Imm & in.Mask
		in.Args = nil
	case ir.OpNot:
		in.Code = PNot
	case ir.OpAnd:
		in.Code = PAnd
	case ir.OpOr:
		in.Code = POr
	case ir.OpXor:
		in.Code = PXor
	case ir.OpAdd:
		in.Code = PAdd
	case ir.OpSub:
		in.Code = PSub
	case ir.OpMux:
		in.Code = PMux
	case ir.OpCase:
		in.Code = PCase
		in.Keys = append([]uint64(nil), e.Cases...)
	case ir.OpShl:
		in.Code = PShl
		in.Imm = uint64(outW)
	case ir.OpShr:
		in.Code = PShr
		in.Imm = uint64(outW)
	case ir.OpEq:
		in.Code = PEq
	case ir.OpLt:
		in.Code = PLt
	case ir.OpConcat:
		in.Code = PConcat
		in.Shifts = make([]uint, len(e.Args))
		for i, a := range e.Args {
			in.Shifts[i] = uint(d.Signals[a].Width)
		}
	case ir.OpSlice:
		in.Code = PSlice
		in.Imm = uint64(e.Lo)
		in.Mask = ir.Mask(e.Hi - e.Lo + 1)
	default:
		return Instr{}, &BackendUnsupportedOperationError{Backend: string(BackendCompiled), Op: e.Op}
	}
	return in, nil
}

// Run executes one pass of the tape, returning how many slots changed.
func (p *Program) Run(vals []uint64) int {
	changed := 0
	for i := range p.Code {
		in := &p.Code[i]
		var v uint64
		switch in.Code {
		case PConst:
			v = in.Imm
		case PNot:
			v = ^vals[in.Args[0]] & in.Mask
		case PAnd:
			v = vals[in.Args[0]] & vals[in.Args[1]]
		case POr:
			v = vals[in.Args[0]] | vals[in.Args[1]]
		case PXor:
			v = vals[in.Args[0]] ^ vals[in.Args[1]]
		case PAdd:
			v = (vals[in.Args[0]] + vals[in.Args[1]]) & in.Mask
		case PSub:
			v = (vals[in.Args[0]] - vals[in.Args[1]]) & in.Mask
		case PMux:
			if vals[in.Args[0]] != 0 {
				v = vals[in.Args[2]]
			} else {
				v = vals[in.Args[1]]
			}
		case PCase:
			sel := vals[in.Args[0]]
			v = vals[in.Args[len(in.Args)-1]]
			for k, key := range in.Keys {
				if sel == key {
					v = vals[in.Args[1+k]]
					break
				}
			}
		case PShl:
			if amt := vals[in.Args[1]]; amt < in.Imm {
				v = (vals[in.Args[0]] << amt) & in.Mask
			}
		case PShr:
			if amt := vals[in.Args[1]]; amt < in.Imm {
				v = vals[in.Args[0]] >> amt
			}
		case PEq:
			if vals[in.Args[0]] == vals[in.Args[1]] {
				v = 1
			}
		case PLt:
			if vals[in.Args[0]] < vals[in.Args[1]] {
				v = 1
			}
		case PConcat:
			for k, a := range in.Args {
				v = v<<in.Shifts[k] | vals[a]
			}
		case PSlice:
			v = vals[in.Args[0]] >> in.Imm & in.Mask
		}
		if vals[in.Out] != v {
			vals[in.Out] = v
			changed++
		}
	}
	return changed
}

// MarshalProgram renders the artifact as JSON.
func MarshalProgram(p *Program) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// UnmarshalProgram parses a previously marshaled artifact.
func UnmarshalProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing program artifact: %w", err)
	}
	return &p, nil
}
