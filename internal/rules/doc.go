// Package rules evaluates parsed policy conditions against per-file context
// and runs the ordered conditional rule list.
//
// Evaluation is a total function: a missing plugin, absent tag, or malformed
// metadata value degrades to false with an explanatory trace string instead
// of an error, so one bad field never aborts rule processing. The rule
// engine is first-match-wins; action execution accumulates into a Result
// that the planner merges into the file's Plan.
package rules
