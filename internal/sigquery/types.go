package sigquery

// Filter selects a subset of a trace's change records.
//
// This is a sealed interface. The marker method prevents implementations
// outside this package and lets backend compilers type-switch exhaustively.
//
// Filter types:
//   - SignalIs: change belongs to the named signal
//   - SignalIn: change belongs to one of several signals
//   - TimeBetween: change timestamp falls in a closed range
//   - ValueIs: change carries an exact value
//   - And: all sub-filters match
//   - Or: any sub-filter matches
type Filter interface {
	filterNode() // marker, seals the interface to this package
}

// SignalIs matches changes on a single signal.
type SignalIs struct {
	Name string
}

func (SignalIs) filterNode() {}

// SignalIn matches changes on any of the named signals.
type SignalIn struct {
	Names []string
}

func (SignalIn) filterNode() {}

// TimeBetween matches changes with From <= time <= To. Both bounds are
// inclusive, matching how waveform viewers select a window.
type TimeBetween struct {
	From uint64
	To   uint64
}

func (TimeBetween) filterNode() {}

// ValueIs matches changes carrying exactly the given value.
//
// Only equality is supported: archives store values as decimal text to
// stay faithful to 64-bit unsigned words, and text columns do not order
// numerically.
type ValueIs struct {
	Value uint64
}

func (ValueIs) filterNode() {}

// And matches when every sub-filter matches. An empty And matches
// everything.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}

// Or matches when at least one sub-filter matches. An empty Or matches
// nothing.
type Or struct {
	Filters []Filter
}

func (Or) filterNode() {}
