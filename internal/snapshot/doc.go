// Package snapshot reads and mutates container introspection documents.
//
// A snapshot is the JSON form of media.Container, produced by an external
// probe and stored either as the file itself (*.json) or as a sidecar next
// to the media file. The package provides an Analyzer that loads snapshots
// and an Executor that applies plans to them through the locked
// backup-then-mutate-then-verify path, so the full pipeline can run and be
// audited without invoking container tools.
package snapshot
