package rules

import "medley/internal/media"

// SkipFlag names a planner sub-step a rule can suppress.
type SkipFlag string

const (
	SkipTrackFilter    SkipFlag = "skip_track_filter"
	SkipVideoTranscode SkipFlag = "skip_video_transcode"
	SkipAudioTranscode SkipFlag = "skip_audio_transcode"
	SkipSynthesis      SkipFlag = "skip_synthesis"
	SkipAll            SkipFlag = "skip_all"
)

// KnownSkipFlags is the closed set accepted by policy documents.
var KnownSkipFlags = map[SkipFlag]bool{
	SkipTrackFilter:    true,
	SkipVideoTranscode: true,
	SkipAudioTranscode: true,
	SkipSynthesis:      true,
	SkipAll:            true,
}

// TrackSelector narrows which tracks a flag/language action applies to.
type TrackSelector struct {
	Type     media.TrackType
	Language string
}

// Matches reports whether the selector applies to track.
func (s TrackSelector) Matches(track media.Track) bool {
	if s.Type != "" && track.Type != s.Type {
		return false
	}
	if s.Language != "" && !track.LanguageMatches(s.Language) {
		return false
	}
	return true
}

// ValueRef is either a static string or a reference to a plugin metadata
// field ("plugin.field"). An unresolvable reference makes the consuming
// action a no-op rather than an error.
type ValueRef struct {
	Static string
	Plugin string
	Field  string
}

// IsPluginRef reports whether the ref resolves through plugin metadata.
func (v ValueRef) IsPluginRef() bool {
	return v.Plugin != ""
}

// Resolve returns the concrete value, or false when a plugin reference
// cannot be resolved (plugin absent, field absent, field value nil).
func (v ValueRef) Resolve(ctx *Context) (string, bool) {
	if !v.IsPluginRef() {
		return v.Static, true
	}
	value, ok := ctx.PluginField(v.Plugin, v.Field)
	if !ok || value == nil {
		return "", false
	}
	if s, ok := value.(string); ok {
		return s, s != ""
	}
	return "", false
}

// Action is the closed set of rule consequences.
type Action interface {
	action()
}

// Skip raises a named skip flag.
type Skip struct {
	Flag SkipFlag
}

// Warn records a templated warning without changing the outcome.
type Warn struct {
	Message string
}

// Fail forces the phase outcome to Failed with a templated message.
type Fail struct {
	Message string
}

// SetForced changes the forced disposition flag on matching tracks.
type SetForced struct {
	Selector TrackSelector
	Value    bool
}

// SetDefault changes the default disposition flag. Setting true applies to
// only the first matching track so one track per type stays default.
type SetDefault struct {
	Selector TrackSelector
	Value    bool
}

// SetLanguage retags matching tracks' language.
type SetLanguage struct {
	Selector TrackSelector
	Value    ValueRef
}

// SetContainerMetadata writes a container-level tag.
type SetContainerMetadata struct {
	Field string
	Value ValueRef
}

func (Skip) action()                 {}
func (Warn) action()                 {}
func (Fail) action()                 {}
func (SetForced) action()            {}
func (SetDefault) action()           {}
func (SetLanguage) action()          {}
func (SetContainerMetadata) action() {}
