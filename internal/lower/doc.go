// Package lower rewrites a word-level netlist into an equivalent gate-level
// one: every signal becomes a set of 1-bit nets and every expression becomes
// a network of NOT, AND2, OR2 and XOR2 gates plus 1-bit flops. The result is
// a plain design again, so it validates, simulates and traces through the
// same machinery as its word-level source, and equivalence between the two
// is checked by sweeping both simulators with identical stimulus.
package lower
