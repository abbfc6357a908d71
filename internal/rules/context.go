package rules

import "medley/internal/media"

// TrackClassification carries acoustic/transcription analysis for one audio
// track, supplied by an analyzer plugin before evaluation.
type TrackClassification struct {
	// LanguageShares maps a language code to its share of detected
	// dialogue, summing to roughly 1.0.
	LanguageShares map[string]float64
	// DetectedLanguage is the dominant dialogue language.
	DetectedLanguage string
	// Confidence applies to DetectedLanguage.
	Confidence float64
	// Dubbed marks the track as dubbed audio with DubbedConfidence.
	Dubbed           bool
	DubbedConfidence float64
	// Commentary marks the track as a commentary feed.
	Commentary bool
}

// Classification bundles per-file analysis results. All fields are optional;
// conditions that need an absent result evaluate to false.
type Classification struct {
	// OriginalLanguage is the production language of the title, typically
	// sourced from a metadata plugin.
	OriginalLanguage string
	// Tracks is keyed by track index.
	Tracks map[int]TrackClassification
}

// Context is the per-file evaluation input: the introspected container, the
// plugin metadata mapping, and optional classification results. Contexts are
// read-only during evaluation and safe to share.
type Context struct {
	Container      media.Container
	Plugins        map[string]map[string]any
	Classification *Classification
}

// PluginField resolves Plugins[plugin][field]. The second return
// distinguishes an absent entry from a present-but-nil value.
func (c *Context) PluginField(plugin, field string) (any, bool) {
	fields, ok := c.Plugins[plugin]
	if !ok {
		return nil, false
	}
	value, ok := fields[field]
	return value, ok
}

// TrackClassificationFor returns the classification entry for a track index.
func (c *Context) TrackClassificationFor(index int) (TrackClassification, bool) {
	if c.Classification == nil {
		return TrackClassification{}, false
	}
	tc, ok := c.Classification.Tracks[index]
	return tc, ok
}

// IsCommentaryTrack prefers acoustic classification and falls back to the
// track-title heuristic.
func (c *Context) IsCommentaryTrack(track media.Track) bool {
	if tc, ok := c.TrackClassificationFor(track.Index); ok {
		return tc.Commentary
	}
	return track.IsCommentary()
}
