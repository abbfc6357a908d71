// Package services defines shared utilities consumed across the planning and
// execution pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp file paths, phase names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent between the planner, the phase runner, and
//     the audit log.
//
// Use these helpers when wiring new phase logic so operational behaviour
// (error handling, observability, retries) stays uniform across the
// pipeline.
package services
