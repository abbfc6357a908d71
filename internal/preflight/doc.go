// Package preflight provides readiness checks for the filesystem paths,
// external tools, and metadata services Medley depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure before the
//     first library sweep, so a doomed setup is visible immediately.
//   - The CLI "medley doctor" command renders the individual results so an
//     operator can see exactly which part of the setup is broken.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
