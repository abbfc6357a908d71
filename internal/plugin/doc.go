// Package plugin fetches external metadata for library files from Radarr
// and Sonarr instances.
//
// Each configured source is queried by file name and contributes a flat
// key/value namespace to rule evaluation. Sources are best-effort: an
// unreachable instance degrades to an empty namespace rather than failing
// the file, so policies that consult plugin() fields keep working when the
// instance is down.
package plugin
