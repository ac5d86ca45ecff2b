// Package ir defines the flat netlist intermediate representation shared by
// every execution backend.
//
// A Design is produced once by elaboration and never mutated structurally.
// It is a flat arena: Signals, Exprs and Registers are stored in slices and
// reference each other by integer SignalID. Hierarchy from the authoring
// front end survives only as dotted path segments inside signal names.
//
// The expression tag set (Op) is closed. Backends translate it with a single
// switch; a tag a backend cannot handle is a loud error, never a silent
// approximation, because the whole correctness story rests on every backend
// computing bit-identical results.
//
// All signal values are fixed-width unsigned integers, width 1..64, held as
// uint64 with the invariant 0 <= v < 2^width. There is no X/Z logic.
package ir
