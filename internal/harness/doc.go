// Package harness runs YAML-described simulation scenarios: load a design,
// drive pokes and clock cycles through it, check expected values and record
// a trace along the way. Scenarios double as conformance fixtures: the same
// scenario can run on every backend (RunDifferential) and its trace can be
// pinned as a golden VCD file (RunWithGolden).
package harness
