// Package plan turns evaluation output into an immutable execution Plan for
// one file: track ordering, keep/remove dispositions, flag/language/metadata
// actions, audio handling, and the container conversion decision.
//
// Building a plan never mutates its inputs and is deterministic: identical
// tracks, policy, and plugin metadata produce structurally equal Plans, and
// a file already in its target state produces an empty Plan.
package plan
