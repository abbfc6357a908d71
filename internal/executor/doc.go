// Package executor defines the contract between plans and the external
// tools that apply them, plus the safety rail every mutation runs inside:
// per-file advisory locking and backup-then-mutate-then-verify with atomic
// replacement. Concrete media tools live outside this module; the scheduler
// only depends on the Executor interface.
package executor
