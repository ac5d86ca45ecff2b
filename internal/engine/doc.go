// Package engine implements the hdlkit simulation engine.
//
// A Simulator wraps one compiled design with one execution backend and a
// flat value array, one uint64 slot per signal. Callers drive it with
// Poke/Propagate/Peek; an optional trace session observes values between
// steps.
//
// ARCHITECTURE:
//
// Single-threaded, caller-driven:
// There is no internal scheduler and no background goroutine. Propagate,
// backend translation and trace capture run synchronously to completion.
// Fixed design + fixed ordered stimulus implies a fixed value trajectory,
// independent of wall clock or host scheduling. That property is what makes
// exact replay and golden-trace regression testing possible, so nothing in
// this package may consult time, maps in iteration order, or randomness
// during evaluation.
//
// Propagate:
//  1. Sweep the combinational network in topological order until a sweep
//     changes nothing (fixpoint), bounded by the settle-iteration cap.
//  2. Latch every register's next value from its settled data net.
//  3. Commit registers whose clock rose 0->1 since the previous Propagate;
//     synchronous reset wins over enable, absent enable means enabled.
//  4. If anything committed, sweep again so downstream combinational
//     signals reflect the new state before returning.
//
// Backends:
// The interpreter re-walks the expression list every sweep and serves as
// the correctness oracle. The JIT translates each expression into a closure
// once, on first use. The compiled backend translates ahead of time into a
// standalone instruction Program that runs without the design graph.
// Backend choice is construction-time configuration; it may change speed,
// never results. A backend that cannot translate a tag fails loudly with
// BackendUnsupportedOperationError - a silent fallback would mask exactly
// the parity bugs the differential suite exists to catch.
package engine
