package plan

import (
	"medley/internal/media"
	"medley/internal/synth"
)

// ActionType enumerates the mutations a plan can request.
type ActionType string

const (
	ActionReorderTracks        ActionType = "reorder_tracks"
	ActionSetForced            ActionType = "set_forced"
	ActionSetDefault           ActionType = "set_default"
	ActionSetLanguage          ActionType = "set_language"
	ActionSetContainerMetadata ActionType = "set_container_metadata"
)

// Action is one planned mutation. TrackIndex is -1 for container-level
// actions.
type Action struct {
	Type       ActionType `json:"type"`
	TrackIndex int        `json:"track_index"`
	Field      string     `json:"field,omitempty"`
	Current    string     `json:"current,omitempty"`
	Desired    string     `json:"desired,omitempty"`
}

// Disposition is the keep/remove decision for one track, with a metadata
// snapshot for the audit log.
type Disposition struct {
	Track  media.Track `json:"track"`
	Keep   bool        `json:"keep"`
	Reason string      `json:"reason,omitempty"`
}

// IncompatibleTrack plans the handling of a track whose codec the target
// container cannot carry.
type IncompatibleTrack struct {
	TrackIndex  int             `json:"track_index"`
	TrackType   media.TrackType `json:"track_type"`
	SourceCodec string          `json:"source_codec"`
	Action      string          `json:"action"` // transcode, convert, or remove
	TargetCodec string          `json:"target_codec,omitempty"`
	Bitrate     string          `json:"bitrate,omitempty"`
	Reason      string          `json:"reason"`
}

// ContainerChange describes a format conversion and the per-track work it
// requires.
type ContainerChange struct {
	Source             string              `json:"source"`
	Target             string              `json:"target"`
	IncompatibleTracks []IncompatibleTrack `json:"incompatible_tracks,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// SynthesisSkip records one configured synthesis target that was not
// planned and why.
type SynthesisSkip struct {
	Codec  string `json:"codec"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// AudioPlan carries the synthesis work: one operation per resolvable
// configured target, plus the targets that were skipped.
type AudioPlan struct {
	Synthesis []synth.Operation `json:"synthesis,omitempty"`
	Skipped   []SynthesisSkip   `json:"skipped,omitempty"`
}

// Plan is the deterministic, immutable description of all mutations to
// apply to one file. It is created fresh per file per run and only appended
// to the audit log afterwards.
type Plan struct {
	Path          string           `json:"path"`
	PolicyVersion string           `json:"policy_version"`
	Actions       []Action         `json:"actions,omitempty"`
	TrackOrder    []int            `json:"track_order,omitempty"`
	Dispositions  []Disposition    `json:"dispositions,omitempty"`
	Container     *ContainerChange `json:"container,omitempty"`
	Audio         *AudioPlan       `json:"audio,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// RemovedTracks returns the dispositions marked for removal.
func (p *Plan) RemovedTracks() []Disposition {
	var out []Disposition
	for _, d := range p.Dispositions {
		if !d.Keep {
			out = append(out, d)
		}
	}
	return out
}

// HasSynthesis reports whether the plan creates at least one new audio
// track.
func (p *Plan) HasSynthesis() bool {
	return p.Audio != nil && len(p.Audio.Synthesis) > 0
}

// IsEmpty reports whether executing the plan would change nothing: no
// actions, no track removals, no container change, and no synthesized
// track.
func (p *Plan) IsEmpty() bool {
	if len(p.Actions) > 0 {
		return false
	}
	if len(p.RemovedTracks()) > 0 {
		return false
	}
	if p.Container != nil {
		return false
	}
	if p.HasSynthesis() {
		return false
	}
	return true
}
