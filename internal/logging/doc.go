// Package logging assembles structured slog loggers and formatting helpers
// used across Medley.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and provides typed attribute constructors so every component emits
// data with the same shape. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
