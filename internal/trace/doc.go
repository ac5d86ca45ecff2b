// Package trace records signal value changes and renders them as VCD.
//
// A Session has an independent lifecycle from the simulation it observes:
// create, clear and destroy sessions freely without touching engine state.
// The session holds a signal selection, a per-signal last-recorded value,
// and either an in-memory change buffer or a streaming sink.
//
// Recording is sparse: Capture appends (time, signal, value) only for
// selected signals whose value differs from the last recorded one. The
// first Capture instead snapshots every selected signal - that snapshot
// becomes the $dumpvars block of the rendered VCD.
//
// The VCD text framing is an external contract consumed by third-party
// waveform viewers; ToVCD and ParseVCD are exact inverses over the
// (time, signal, value) sequence.
package trace
