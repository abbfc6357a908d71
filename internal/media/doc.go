// Package media defines the introspected view of a container file that the
// rest of the pipeline evaluates and plans against: track metadata, container
// metadata, format normalization, and track classification used for
// ordering.
//
// Introspection itself (running ffprobe and parsing its output) happens
// outside this module; media values arrive already structured.
package media
