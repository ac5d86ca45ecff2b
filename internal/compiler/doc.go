// Package compiler validates elaborated designs and plans their evaluation.
//
// This is the single validation point of the system: a design that passes
// Compile is structurally sound, and the engine, the backends and the
// gate-level lowering may all assume so. Validation collects every error it
// finds rather than failing fast, so a malformed document surfaces all of
// its problems in one pass.
//
// Compile also fixes the topological evaluation order of the combinational
// network. Feedback is only legal through a register: an expression-only
// cycle is an elaboration error naming a signal on the cycle.
package compiler
