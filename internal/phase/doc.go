// Package phase sequences the named phases of a policy over one file. Each
// phase carries its own skip condition, run_if precondition, dependency
// list, and error mode; the scheduler walks the list in order, records a
// per-phase outcome, and aggregates them into a per-file result.
package phase
