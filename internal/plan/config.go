package plan

import "medley/internal/media"

// OrderConfig declares the desired track ordering.
type OrderConfig struct {
	// Types is the coarse type priority; empty means the default
	// video, audio, subtitle, attachment ordering.
	Types []media.TrackType
	// Languages ranks languages within a type.
	Languages []string
}

// TypeFilter narrows which tracks of one type survive filtering.
type TypeFilter struct {
	// KeepLanguages keeps only tracks in these languages; empty keeps all.
	KeepLanguages []string
	// RemoveAll drops every track of the type.
	RemoveAll bool
	// PreserveForced keeps forced subtitle tracks even outside
	// KeepLanguages, unless the rule engine is clearing their forced flag.
	PreserveForced bool
	// RemoveCommentary drops commentary audio tracks.
	RemoveCommentary bool
}

// FiltersConfig groups the per-type filters. Video tracks are never
// filtered.
type FiltersConfig struct {
	Audio      TypeFilter
	Subtitle   TypeFilter
	Attachment AttachmentFilter
}

// AttachmentFilter controls attachment retention. Font attachments are kept
// whenever styled subtitles survive, regardless of KeepAll.
type AttachmentFilter struct {
	KeepAll bool
}

// CodecMapping overrides the handling of one incompatible codec during
// container conversion.
type CodecMapping struct {
	// Action is transcode, convert, or remove; empty infers from the track
	// type.
	Action string
	// Codec is the transcode/convert target.
	Codec string
	// Bitrate applies to transcode actions.
	Bitrate string
}

// ConversionConfig declares the container conversion policy.
type ConversionConfig struct {
	// TargetFormat is the desired container ("mp4", "mkv"); empty disables
	// conversion.
	TargetFormat string
	// CodecMappings overrides default incompatible-codec handling, keyed by
	// source codec.
	CodecMappings map[string]CodecMapping
}

// Config bundles the planner settings extracted from a policy document.
type Config struct {
	Order      OrderConfig
	Filters    FiltersConfig
	Conversion ConversionConfig
}
