package sigquery

import "fmt"

// ValidationResult reports structural problems found in a filter.
type ValidationResult struct {
	// Valid is true when the filter can be compiled by any backend.
	Valid bool

	// Problems lists what is wrong. Empty when Valid is true.
	Problems []string
}

// Validate checks a filter tree for structural problems: empty signal
// names, inverted time ranges and nil sub-filters. Backends reject these
// too, but Validate reports all of them in one pass with no backend
// involved.
//
// Validate is a pure function with no side effects.
func Validate(f Filter) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(f)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(f Filter) {
	if f == nil {
		v.addProblem("nil filter node")
		return
	}

	switch flt := f.(type) {
	case SignalIs:
		v.validateSignalIs(flt)
	case *SignalIs:
		v.validateSignalIs(*flt)
	case SignalIn:
		v.validateSignalIn(flt)
	case *SignalIn:
		v.validateSignalIn(*flt)
	case TimeBetween:
		v.validateTimeBetween(flt)
	case *TimeBetween:
		v.validateTimeBetween(*flt)
	case ValueIs, *ValueIs:
		// Any 64-bit value is legal.
	case And:
		v.validateList(flt.Filters)
	case *And:
		v.validateList(flt.Filters)
	case Or:
		v.validateList(flt.Filters)
	case *Or:
		v.validateList(flt.Filters)
	default:
		v.addProblem("unknown filter type %T", f)
	}
}

func (v *validator) validateSignalIs(f SignalIs) {
	if f.Name == "" {
		v.addProblem("SignalIs with empty name")
	}
}

func (v *validator) validateSignalIn(f SignalIn) {
	if len(f.Names) == 0 {
		v.addProblem("SignalIn with no names")
	}
	for _, name := range f.Names {
		if name == "" {
			v.addProblem("SignalIn contains an empty name")
		}
	}
}

func (v *validator) validateTimeBetween(f TimeBetween) {
	if f.From > f.To {
		v.addProblem("TimeBetween with From %d after To %d", f.From, f.To)
	}
}

func (v *validator) validateList(filters []Filter) {
	for _, sub := range filters {
		v.validate(sub)
	}
}
