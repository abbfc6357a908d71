package media

import "medley/internal/language"

// TrackClass is the coarse ordering bucket a track falls into. Lower values
// sort earlier in the output container.
type TrackClass int

const (
	ClassVideo TrackClass = iota
	ClassAudioPreferred
	ClassAudioOther
	ClassAudioCommentary
	ClassSubtitlePreferred
	ClassSubtitleOther
	ClassAttachment
)

// Classify buckets a track for ordering. preferredLanguages is the policy's
// language priority list; tracks in a preferred language sort ahead of the
// rest of their type, and commentary audio sinks below all main audio.
func Classify(track Track, preferredLanguages []string) TrackClass {
	switch track.Type {
	case TrackVideo:
		return ClassVideo
	case TrackAudio:
		if track.IsCommentary() {
			return ClassAudioCommentary
		}
		if language.MatchesAny(track.Language, preferredLanguages) {
			return ClassAudioPreferred
		}
		return ClassAudioOther
	case TrackSubtitle:
		if language.MatchesAny(track.Language, preferredLanguages) {
			return ClassSubtitlePreferred
		}
		return ClassSubtitleOther
	default:
		return ClassAttachment
	}
}

// OrderKey is the sort key for track ordering: class first, then language
// preference rank, then the original index as the tie breaker.
type OrderKey struct {
	Class    TrackClass
	LangRank int
	Index    int
}

// OrderKeyFor computes the ordering key for one track.
func OrderKeyFor(track Track, preferredLanguages []string) OrderKey {
	return OrderKey{
		Class:    Classify(track, preferredLanguages),
		LangRank: language.PreferenceIndex(track.Language, preferredLanguages),
		Index:    track.Index,
	}
}

// Less compares two order keys.
func (k OrderKey) Less(other OrderKey) bool {
	if k.Class != other.Class {
		return k.Class < other.Class
	}
	if k.LangRank != other.LangRank {
		return k.LangRank < other.LangRank
	}
	return k.Index < other.Index
}
