// Package harness runs declarative intake scenarios for conformance
// testing.
//
// A scenario is a YAML file describing a roster, an event, an optional
// survey, and a sequence of badge scans. The harness executes the scenario
// against a fresh database with a scripted decode source and a fixed
// clock, then snapshots the emitted outcomes and persisted row counts for
// golden-file comparison.
//
// Scenarios live in testdata/scenarios; goldens in testdata/golden.
// Regenerate goldens with:
//
//	go test ./internal/harness -update
package harness
