package synth

import "medley/internal/expr"

// CriterionKind tags one source-selection preference.
type CriterionKind string

const (
	CriterionLanguage   CriterionKind = "language"
	CriterionCommentary CriterionKind = "commentary"
	CriterionCodec      CriterionKind = "codec"
	CriterionChannels   CriterionKind = "channels"
)

// ChannelMode selects how a channels criterion scores.
type ChannelMode string

const (
	ChannelsMax   ChannelMode = "max"
	ChannelsMin   ChannelMode = "min"
	ChannelsExact ChannelMode = "exact"
)

// Criterion is one ordered source-selection preference.
type Criterion struct {
	Kind CriterionKind
	// Language applies to CriterionLanguage.
	Language string
	// Commentary applies to CriterionCommentary; false prefers main audio.
	Commentary bool
	// Codec applies to CriterionCodec.
	Codec string
	// Channel fields apply to CriterionChannels.
	ChannelMode  ChannelMode
	ChannelCount int
}

// Target describes one synthesized audio track the policy wants present.
type Target struct {
	// Codec is the synthesized track's codec (eac3, aac, ac3, opus, flac).
	Codec string
	// Channels is the synthesized track's channel count.
	Channels int
	// Language tags the new track and participates in duplicate detection.
	Language string
	// Title for the new track, optional.
	Title string
	// Bitrate overrides the codec/channel default when set (e.g. "640k").
	Bitrate string
	// Prefer is the ordered source-selection criteria list.
	Prefer []Criterion
	// When gates creation; nil means always.
	When expr.Condition
	// SkipIfExists suppresses synthesis when a matching track is already
	// present.
	SkipIfExists bool
}

// SkipReason explains why a synthesis target produced no operation.
type SkipReason string

const (
	SkipConditionNotMet    SkipReason = "condition_not_met"
	SkipNoSourceAvailable  SkipReason = "no_source_available"
	SkipWouldUpmix         SkipReason = "would_upmix"
	SkipEncoderUnavailable SkipReason = "encoder_unavailable"
	SkipAlreadyExists      SkipReason = "already_exists"
)

// Operation is the planned synthesis work for one target.
type Operation struct {
	Target      Target `json:"target"`
	SourceIndex int    `json:"source_index"`
	SourceScore int    `json:"source_score"`
	// Fallback marks a source chosen because no criterion scored above
	// zero.
	Fallback bool `json:"fallback,omitempty"`
	// FilterGraph is the ffmpeg pan filter for the downmix, empty when the
	// source already has the target channel count.
	FilterGraph string `json:"filter_graph,omitempty"`
	Encoder     string `json:"encoder"`
	Bitrate     string `json:"bitrate,omitempty"`
}

// Outcome is the result of resolving one target: either an Operation or a
// skip with its reason.
type Outcome struct {
	Operation *Operation `json:"operation,omitempty"`
	Skipped   bool       `json:"skipped,omitempty"`
	Reason    SkipReason `json:"reason,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}
