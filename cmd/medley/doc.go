// Package main hosts the Medley CLI entrypoint and command graph.
//
// The Cobra-based command tree compiles policy documents, renders dry-run
// plans, applies plans through the executor registry, and inspects the audit
// trail. It centralizes configuration resolution and policy caching so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
