package ir

import "fmt"

// SignalID indexes into Design.Signals. The engine's flat value array is
// indexed by the same ID, so Design.Signals[i].ID == i always holds for a
// valid design.
type SignalID int

// NoSignal marks an absent optional reference (register reset or enable).
const NoSignal SignalID = -1

// Kind classifies a signal's role in the netlist.
type Kind string

const (
	// KindInput is a top-level input port, written only by Poke.
	KindInput Kind = "input"
	// KindOutput is a top-level output port driven by an expression.
	KindOutput Kind = "output"
	// KindInternal is a combinational net driven by an expression.
	KindInternal Kind = "internal"
	// KindState is persistent register state, written only on clock edges.
	KindState Kind = "state"
)

// ValidKinds defines the allowed signal kinds.
var ValidKinds = map[Kind]bool{
	KindInput:    true,
	KindOutput:   true,
	KindInternal: true,
	KindState:    true,
}

// Signal is one net in the flat arena. The value itself lives in the
// engine's value array, not here; the IR stays immutable during simulation.
type Signal struct {
	ID    SignalID `json:"id"`
	Name  string   `json:"name"`
	Width int      `json:"width"`
	Kind  Kind     `json:"kind"`
}

// Op tags an expression node. The set is closed and finite.
type Op string

const (
	OpConst  Op = "const"  // no args; Imm & mask(width)
	OpNot    Op = "not"    // 1 arg, same width
	OpAnd    Op = "and"    // 2 args, same width
	OpOr     Op = "or"     // 2 args, same width
	OpXor    Op = "xor"    // 2 args, same width
	OpAdd    Op = "add"    // 2 args width w; out width w or w+1 (carry in top bit)
	OpSub    Op = "sub"    // 2 args width w; out width w, wraps mod 2^w
	OpMux    Op = "mux"    // [sel, a, b]; sel=0 selects a
	OpCase   Op = "case"   // [sel, branch..., default]; Cases holds match keys
	OpShl    Op = "shl"    // [a, amount]; logical, amount >= width gives 0
	OpShr    Op = "shr"    // [a, amount]; logical, amount >= width gives 0
	OpEq     Op = "eq"     // 2 args same width; out width 1
	OpLt     Op = "lt"     // 2 args same width, unsigned; out width 1
	OpConcat Op = "concat" // N args; first arg lands in the high bits
	OpSlice  Op = "slice"  // 1 arg; bits Lo..Hi inclusive
)

// ValidOps defines the closed expression tag set.
var ValidOps = map[Op]bool{
	OpConst: true, OpNot: true, OpAnd: true, OpOr: true, OpXor: true,
	OpAdd: true, OpSub: true, OpMux: true, OpCase: true,
	OpShl: true, OpShr: true, OpEq: true, OpLt: true,
	OpConcat: true, OpSlice: true,
}

// Expr is one combinational node: an operation over input signals driving
// exactly one output signal. Imm, Lo/Hi and Cases are operand fields for the
// tags that need them and are zero otherwise.
type Expr struct {
	Op   Op         `json:"op"`
	Args []SignalID `json:"args,omitempty"`
	Out  SignalID   `json:"out"`

	// Imm is the literal value for OpConst.
	Imm uint64 `json:"imm,omitempty"`
	// Lo and Hi bound an OpSlice, inclusive, Lo <= Hi.
	Lo int `json:"lo,omitempty"`
	Hi int `json:"hi,omitempty"`
	// Cases holds the match keys for OpCase, one per branch arg, in
	// declaration order. The first matching key wins; the final arg is the
	// default value.
	Cases []uint64 `json:"cases,omitempty"`
}

// Register is a clocked state element. Data is re-evaluated every propagate
// but committed to Out only on a 0->1 transition of Clock. Reset (synchronous,
// commits ResetValue) takes priority over Enable; Enable absent means always
// enabled on the edge.
type Register struct {
	Data       SignalID `json:"data"`
	Clock      SignalID `json:"clock"`
	Reset      SignalID `json:"reset"`
	Enable     SignalID `json:"enable"`
	ResetValue uint64   `json:"reset_value,omitempty"`
	Out        SignalID `json:"out"`
}

// Design is the self-contained netlist document. Inputs and Outputs list
// port signal names in declaration order; Exprs is the ordered gate list;
// Registers the ordered state list. Order is part of the document contract:
// identical designs must serialize identically so backend translation and
// artifact caching stay reproducible.
type Design struct {
	Name      string     `json:"name"`
	Inputs    []string   `json:"inputs"`
	Outputs   []string   `json:"outputs"`
	Signals   []Signal   `json:"signals"`
	Exprs     []Expr     `json:"exprs"`
	Registers []Register `json:"registers"`
}

// SignalByName builds the read-only name->ID index. Built once after
// elaboration; callers must not mutate the design afterwards.
func (d *Design) SignalByName() map[string]SignalID {
	m := make(map[string]SignalID, len(d.Signals))
	for _, s := range d.Signals {
		m[s.Name] = s.ID
	}
	return m
}

// Signal returns the signal with the given ID.
// Panics on an out-of-range ID; validation rejects those at construction.
func (d *Design) Signal(id SignalID) Signal {
	return d.Signals[id]
}

// PortWidths returns name->width for the given port name list.
func (d *Design) PortWidths(names []string) (map[string]int, error) {
	byName := d.SignalByName()
	m := make(map[string]int, len(names))
	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("port %q: no such signal", n)
		}
		m[n] = d.Signals[id].Width
	}
	return m, nil
}

// HasReset reports whether the register has a synchronous reset net.
func (r Register) HasReset() bool { return r.Reset != NoSignal }

// HasEnable reports whether the register has an enable net.
func (r Register) HasEnable() bool { return r.Enable != NoSignal }
