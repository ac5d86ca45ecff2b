package compiler

import (
	"fmt"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// Validate checks a design against every structural rule and returns all
// errors found (not fail-fast). A nil result means the design is sound apart
// from combinational cycles, which Order checks separately because it needs
// the reference rules to have passed first.
func Validate(d *ir.Design) ElaborationErrors {
	var errs ElaborationErrors

	errs = append(errs, validateSignals(d)...)

	// Every later rule indexes the arena through signal IDs, including the
	// port check via SignalByName; stop when the arena itself is broken.
	if hasCode(errs, ErrBadSignalID) {
		return errs
	}

	errs = append(errs, validatePorts(d)...)
	errs = append(errs, validateDrivers(d)...)
	for i := range d.Exprs {
		errs = append(errs, validateExpr(d, i)...)
	}
	for i := range d.Registers {
		errs = append(errs, validateRegister(d, i)...)
	}
	return errs
}

func hasCode(errs ElaborationErrors, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func validateSignals(d *ir.Design) ElaborationErrors {
	var errs ElaborationErrors
	seen := make(map[string]bool, len(d.Signals))
	for i, s := range d.Signals {
		field := fmt.Sprintf("signals[%d]", i)
		if s.ID != ir.SignalID(i) {
			errs = append(errs, ElaborationError{
				Code:    ErrBadSignalID,
				Field:   field,
				Message: fmt.Sprintf("signal ID %d does not match arena index %d", s.ID, i),
			})
		}
		if s.Name == "" {
			errs = append(errs, ElaborationError{
				Code:    ErrDuplicateName,
				Field:   field + ".name",
				Message: "signal name must be non-empty",
			})
		} else if seen[s.Name] {
			errs = append(errs, ElaborationError{
				Code:    ErrDuplicateName,
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate signal name %q", s.Name),
			})
		}
		seen[s.Name] = true
		if s.Width < 1 || s.Width > ir.MaxWidth {
			errs = append(errs, ElaborationError{
				Code:    ErrBadWidth,
				Field:   field + ".width",
				Message: fmt.Sprintf("width %d outside 1..%d", s.Width, ir.MaxWidth),
			})
		}
		if !ir.ValidKinds[s.Kind] {
			errs = append(errs, ElaborationError{
				Code:    ErrBadKind,
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown kind %q", s.Kind),
			})
		}
	}
	return errs
}

func validatePorts(d *ir.Design) ElaborationErrors {
	var errs ElaborationErrors
	byName := d.SignalByName()
	check := func(names []string, field string, want ...ir.Kind) {
		for i, n := range names {
			id, ok := byName[n]
			if !ok {
				errs = append(errs, ElaborationError{
					Code:    ErrBadPort,
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Message: fmt.Sprintf("port %q names no signal", n),
				})
				continue
			}
			kind := d.Signals[id].Kind
			ok = false
			for _, k := range want {
				if kind == k {
					ok = true
				}
			}
			if !ok {
				errs = append(errs, ElaborationError{
					Code:    ErrBadPort,
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Message: fmt.Sprintf("port %q has kind %q, want one of %v", n, kind, want),
				})
			}
		}
	}
	check(d.Inputs, "inputs", ir.KindInput)
	// Register state may be exported directly as an output port.
	check(d.Outputs, "outputs", ir.KindOutput, ir.KindState)
	return errs
}

// validateDrivers enforces single-driver semantics: every non-input signal
// is driven by exactly one expression or register, and inputs by none.
func validateDrivers(d *ir.Design) ElaborationErrors {
	var errs ElaborationErrors
	drivers := make([]int, len(d.Signals))
	note := func(id ir.SignalID, field string) {
		if int(id) < 0 || int(id) >= len(d.Signals) {
			errs = append(errs, ElaborationError{
				Code:    ErrDanglingRef,
				Field:   field,
				Message: fmt.Sprintf("output reference %d out of range", id),
			})
			return
		}
		drivers[id]++
		s := d.Signals[id]
		if s.Kind == ir.KindInput {
			errs = append(errs, ElaborationError{
				Code:    ErrDrivenInput,
				Field:   field,
				Message: fmt.Sprintf("input signal %q must not be driven", s.Name),
			})
		}
		if drivers[id] > 1 {
			errs = append(errs, ElaborationError{
				Code:    ErrMultipleDrivers,
				Field:   field,
				Message: fmt.Sprintf("signal %q has multiple drivers", s.Name),
			})
		}
	}
	for i, e := range d.Exprs {
		note(e.Out, fmt.Sprintf("exprs[%d].out", i))
	}
	for i, r := range d.Registers {
		note(r.Out, fmt.Sprintf("registers[%d].out", i))
	}
	for id, n := range drivers {
		s := d.Signals[id]
		if n == 0 && s.Kind != ir.KindInput {
			errs = append(errs, ElaborationError{
				Code:    ErrUndrivenSignal,
				Field:   fmt.Sprintf("signals[%d]", id),
				Message: fmt.Sprintf("signal %q has no driver", s.Name),
			})
		}
	}
	return errs
}

func validateExpr(d *ir.Design, i int) ElaborationErrors {
	var errs ElaborationErrors
	e := d.Exprs[i]
	field := fmt.Sprintf("exprs[%d]", i)

	if !ir.ValidOps[e.Op] {
		return ElaborationErrors{{
			Code:    ErrBadOp,
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown expression tag %q", e.Op),
		}}
	}
	for j, a := range e.Args {
		if int(a) < 0 || int(a) >= len(d.Signals) {
			errs = append(errs, ElaborationError{
				Code:    ErrDanglingRef,
				Field:   fmt.Sprintf("%s.args[%d]", field, j),
				Message: fmt.Sprintf("argument reference %d out of range", a),
			})
		}
	}
	if int(e.Out) < 0 || int(e.Out) >= len(d.Signals) {
		errs = append(errs, ElaborationError{
			Code:    ErrDanglingRef,
			Field:   field + ".out",
			Message: fmt.Sprintf("output reference %d out of range", e.Out),
		})
	}
	if len(errs) > 0 {
		return errs
	}

	w := func(id ir.SignalID) int { return d.Signals[id].Width }
	outW := w(e.Out)
	badWidth := func(msg string, args ...any) {
		errs = append(errs, ElaborationError{
			Code:    ErrBadWidth,
			Field:   field,
			Message: fmt.Sprintf(msg, args...),
		})
	}
	wantArity := func(n int) bool {
		if len(e.Args) != n {
			errs = append(errs, ElaborationError{
				Code:    ErrBadArity,
				Field:   field + ".args",
				Message: fmt.Sprintf("%s takes %d arguments, got %d", e.Op, n, len(e.Args)),
			})
			return false
		}
		return true
	}

	switch e.Op {
	case ir.OpConst:
		wantArity(0)
		if !ir.Fits(e.Imm, outW) {
			errs = append(errs, ElaborationError{
				Code:    ErrBadImmediate,
				Field:   field + ".imm",
				Message: fmt.Sprintf("literal %d does not fit width %d", e.Imm, outW),
			})
		}
	case ir.OpNot:
		if wantArity(1) && w(e.Args[0]) != outW {
			badWidth("not output width %d != input width %d", outW, w(e.Args[0]))
		}
	case ir.OpAnd, ir.OpOr, ir.OpXor:
		if wantArity(2) && (w(e.Args[0]) != outW || w(e.Args[1]) != outW) {
			badWidth("%s operands and output must share one width", e.Op)
		}
	case ir.OpAdd:
		if wantArity(2) {
			aw := w(e.Args[0])
			if w(e.Args[1]) != aw {
				badWidth("add operands must share one width")
			} else if outW != aw && outW != aw+1 {
				badWidth("add output width must be %d or %d (carry), got %d", aw, aw+1, outW)
			}
		}
	case ir.OpSub:
		if wantArity(2) {
			aw := w(e.Args[0])
			if w(e.Args[1]) != aw || outW != aw {
				badWidth("sub operands and output must share one width")
			}
		}
	case ir.OpMux:
		if wantArity(3) {
			if w(e.Args[0]) != 1 {
				badWidth("mux select must be width 1")
			}
			if w(e.Args[1]) != outW || w(e.Args[2]) != outW {
				badWidth("mux branches must match output width %d", outW)
			}
		}
	case ir.OpCase:
		errs = append(errs, validateCase(d, e, field)...)
	case ir.OpShl, ir.OpShr:
		if wantArity(2) && w(e.Args[0]) != outW {
			badWidth("%s output width %d != value width %d", e.Op, outW, w(e.Args[0]))
		}
	case ir.OpEq, ir.OpLt:
		if wantArity(2) {
			if w(e.Args[0]) != w(e.Args[1]) {
				badWidth("%s operands must share one width", e.Op)
			}
			if outW != 1 {
				badWidth("%s output must be width 1", e.Op)
			}
		}
	case ir.OpConcat:
		if len(e.Args) < 2 {
			errs = append(errs, ElaborationError{
				Code:    ErrBadArity,
				Field:   field + ".args",
				Message: fmt.Sprintf("concat takes at least 2 arguments, got %d", len(e.Args)),
			})
			break
		}
		sum := 0
		for _, a := range e.Args {
			sum += w(a)
		}
		if sum != outW {
			badWidth("concat output width %d != sum of operand widths %d", outW, sum)
		}
	case ir.OpSlice:
		if wantArity(1) {
			aw := w(e.Args[0])
			if e.Lo < 0 || e.Hi < e.Lo || e.Hi >= aw {
				errs = append(errs, ElaborationError{
					Code:    ErrBadSlice,
					Field:   field,
					Message: fmt.Sprintf("slice [%d:%d] outside width-%d argument", e.Hi, e.Lo, aw),
				})
			} else if outW != e.Hi-e.Lo+1 {
				badWidth("slice output width %d != %d", outW, e.Hi-e.Lo+1)
			}
		}
	}
	return errs
}

// validateCase checks the case-select shape: [sel, branch..., default] with
// one match key per branch, each key fitting the select width.
func validateCase(d *ir.Design, e ir.Expr, field string) ElaborationErrors {
	var errs ElaborationErrors
	if len(e.Args) != len(e.Cases)+2 {
		return ElaborationErrors{{
			Code:    ErrBadArity,
			Field:   field + ".args",
			Message: fmt.Sprintf("case takes select, %d branches and a default, got %d arguments", len(e.Cases), len(e.Args)),
		}}
	}
	selW := d.Signals[e.Args[0]].Width
	outW := d.Signals[e.Out].Width
	for i, key := range e.Cases {
		if !ir.Fits(key, selW) {
			errs = append(errs, ElaborationError{
				Code:    ErrBadImmediate,
				Field:   fmt.Sprintf("%s.cases[%d]", field, i),
				Message: fmt.Sprintf("match key %d does not fit select width %d", key, selW),
			})
		}
	}
	for i, a := range e.Args[1:] {
		if d.Signals[a].Width != outW {
			errs = append(errs, ElaborationError{
				Code:    ErrBadWidth,
				Field:   fmt.Sprintf("%s.args[%d]", field, i+1),
				Message: fmt.Sprintf("case branch width %d != output width %d", d.Signals[a].Width, outW),
			})
		}
	}
	return errs
}

func validateRegister(d *ir.Design, i int) ElaborationErrors {
	var errs ElaborationErrors
	r := d.Registers[i]
	field := fmt.Sprintf("registers[%d]", i)

	ref := func(id ir.SignalID, name string, optional bool) bool {
		if optional && id == ir.NoSignal {
			return false
		}
		if int(id) < 0 || int(id) >= len(d.Signals) {
			errs = append(errs, ElaborationError{
				Code:    ErrDanglingRef,
				Field:   field + "." + name,
				Message: fmt.Sprintf("%s reference %d out of range", name, id),
			})
			return false
		}
		return true
	}

	dataOK := ref(r.Data, "data", false)
	clockOK := ref(r.Clock, "clock", false)
	outOK := ref(r.Out, "out", false)
	resetOK := ref(r.Reset, "reset", true)
	enableOK := ref(r.Enable, "enable", true)

	if clockOK && d.Signals[r.Clock].Width != 1 {
		errs = append(errs, ElaborationError{
			Code:    ErrBadWidth,
			Field:   field + ".clock",
			Message: "clock must be width 1",
		})
	}
	if resetOK && r.HasReset() && d.Signals[r.Reset].Width != 1 {
		errs = append(errs, ElaborationError{
			Code:    ErrBadWidth,
			Field:   field + ".reset",
			Message: "reset must be width 1",
		})
	}
	if enableOK && r.HasEnable() && d.Signals[r.Enable].Width != 1 {
		errs = append(errs, ElaborationError{
			Code:    ErrBadWidth,
			Field:   field + ".enable",
			Message: "enable must be width 1",
		})
	}
	if dataOK && outOK {
		if d.Signals[r.Data].Width != d.Signals[r.Out].Width {
			errs = append(errs, ElaborationError{
				Code:    ErrBadWidth,
				Field:   field,
				Message: fmt.Sprintf("data width %d != state width %d", d.Signals[r.Data].Width, d.Signals[r.Out].Width),
			})
		}
		if !ir.Fits(r.ResetValue, d.Signals[r.Out].Width) {
			errs = append(errs, ElaborationError{
				Code:    ErrBadImmediate,
				Field:   field + ".reset_value",
				Message: fmt.Sprintf("reset value %d does not fit width %d", r.ResetValue, d.Signals[r.Out].Width),
			})
		}
		if d.Signals[r.Out].Kind != ir.KindState {
			errs = append(errs, ElaborationError{
				Code:    ErrBadKind,
				Field:   field + ".out",
				Message: fmt.Sprintf("register output %q must have kind %q", d.Signals[r.Out].Name, ir.KindState),
			})
		}
	}
	return errs
}
