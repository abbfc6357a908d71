package synth

import (
	"fmt"
	"strings"

	"medley/internal/media"
	"medley/internal/rules"
	"medley/internal/services"
)

// Resolve plans one synthesis target against the file context. A non-nil
// error is a planner failure (missing encoder); every other negative
// outcome is a skip with its reason.
func Resolve(target Target, ctx *rules.Context, caps *Capabilities) (Outcome, error) {
	if target.When != nil {
		ok, trace := rules.Evaluate(target.When, ctx)
		if !ok {
			return Outcome{Skipped: true, Reason: SkipConditionNotMet, Detail: trace}, nil
		}
	}

	if target.SkipIfExists && hasMatchingTrack(ctx.Container, target) {
		return Outcome{
			Skipped: true,
			Reason:  SkipAlreadyExists,
			Detail:  fmt.Sprintf("%s %dch %s track already present", target.Codec, target.Channels, target.Language),
		}, nil
	}

	selection, ok := SelectSource(ctx.Container, target.Prefer, ctx)
	if !ok {
		return Outcome{Skipped: true, Reason: SkipNoSourceAvailable, Detail: "file has no audio tracks"}, nil
	}

	if target.Channels > selection.Track.Channels {
		return Outcome{
			Skipped: true,
			Reason:  SkipWouldUpmix,
			Detail: fmt.Sprintf("source track %d has %d channels, target wants %d",
				selection.Track.Index, selection.Track.Channels, target.Channels),
		}, nil
	}

	encoder, known := EncoderFor(target.Codec)
	if !known {
		return Outcome{Skipped: true, Reason: SkipEncoderUnavailable},
			services.Wrap(services.ErrEncoderUnavailable, "synth", "resolve",
				fmt.Sprintf("no encoder mapping for codec %q", target.Codec), nil)
	}
	if !caps.Has(encoder) {
		return Outcome{Skipped: true, Reason: SkipEncoderUnavailable},
			services.Wrap(services.ErrEncoderUnavailable, "synth", "resolve",
				fmt.Sprintf("encoder %q not detected", encoder), nil)
	}

	graph, _, err := DownmixFilter(selection.Track.Channels, target.Channels)
	if err != nil {
		return Outcome{Skipped: true, Reason: SkipWouldUpmix}, err
	}

	bitrate := target.Bitrate
	if bitrate == "" {
		bitrate = DefaultBitrate(target.Codec, target.Channels)
	}

	return Outcome{Operation: &Operation{
		Target:      target,
		SourceIndex: selection.Track.Index,
		SourceScore: selection.Score,
		Fallback:    selection.Fallback,
		FilterGraph: graph,
		Encoder:     encoder,
		Bitrate:     bitrate,
	}}, nil
}

// hasMatchingTrack reports whether the container already carries a track
// equivalent to the target (same codec, channels, and language).
func hasMatchingTrack(container media.Container, target Target) bool {
	for _, track := range container.TracksOfType(media.TrackAudio) {
		if !strings.EqualFold(track.Codec, target.Codec) {
			continue
		}
		if track.Channels != target.Channels {
			continue
		}
		if target.Language != "" && !track.LanguageMatches(target.Language) {
			continue
		}
		return true
	}
	return false
}
