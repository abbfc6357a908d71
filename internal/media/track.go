package media

import (
	"strings"

	"medley/internal/language"
)

// TrackType enumerates the stream classes a container can carry.
type TrackType string

const (
	TrackVideo      TrackType = "video"
	TrackAudio      TrackType = "audio"
	TrackSubtitle   TrackType = "subtitle"
	TrackAttachment TrackType = "attachment"
)

// Track captures the introspected metadata for one stream. Values are
// read-only once constructed; planning never mutates them.
type Track struct {
	Index    int               `json:"index"`
	Type     TrackType         `json:"type"`
	Codec    string            `json:"codec"`
	Language string            `json:"language"`
	Title    string            `json:"title"`
	Channels int               `json:"channels,omitempty"`
	Width    int               `json:"width,omitempty"`
	Height   int               `json:"height,omitempty"`
	Bitrate  int64             `json:"bitrate,omitempty"`
	Default  bool              `json:"default"`
	Forced   bool              `json:"forced"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// commentaryMarkers flag commentary tracks by title when no acoustic
// classification is available.
var commentaryMarkers = []string{"commentary", "director", "cast"}

// IsCommentary reports whether the track title marks it as a commentary
// track.
func (t Track) IsCommentary() bool {
	title := strings.ToLower(t.Title)
	for _, marker := range commentaryMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// LanguageMatches reports whether the track language denotes lang.
func (t Track) LanguageMatches(lang string) bool {
	return language.Matches(t.Language, lang)
}

// Container is the introspected view of one media file.
type Container struct {
	Path   string            `json:"path"`
	Format string            `json:"format"`
	Size   int64             `json:"size"`
	Tags   map[string]string `json:"tags,omitempty"`
	Tracks []Track           `json:"tracks"`
}

// TracksOfType returns the tracks of the given type in original order.
func (c Container) TracksOfType(tt TrackType) []Track {
	var out []Track
	for _, track := range c.Tracks {
		if track.Type == tt {
			out = append(out, track)
		}
	}
	return out
}

// Tag performs a case-insensitive container tag lookup.
func (c Container) Tag(field string) (string, bool) {
	if v, ok := c.Tags[field]; ok {
		return v, true
	}
	for k, v := range c.Tags {
		if strings.EqualFold(k, field) {
			return v, true
		}
	}
	return "", false
}
