package snapshot

import (
	"fmt"

	"medley/internal/media"
	"medley/internal/plan"
	"medley/internal/services"
	"medley/internal/synth"
)

// Apply rewrites a container description according to the plan: metadata
// actions first, then codec conversions, removals, synthesized tracks,
// ordering, and finally the container format. Track indexes are renumbered
// to match the resulting order.
func Apply(container media.Container, p *plan.Plan) (media.Container, error) {
	out := container
	out.Tracks = append([]media.Track(nil), container.Tracks...)

	byIndex := make(map[int]*media.Track, len(out.Tracks))
	for i := range out.Tracks {
		byIndex[out.Tracks[i].Index] = &out.Tracks[i]
	}

	for _, action := range p.Actions {
		if err := applyAction(&out, byIndex, action); err != nil {
			return media.Container{}, err
		}
	}

	removed := make(map[int]bool)
	for _, d := range p.RemovedTracks() {
		removed[d.Track.Index] = true
	}
	if p.Container != nil {
		for _, inc := range p.Container.IncompatibleTracks {
			switch inc.Action {
			case "remove":
				removed[inc.TrackIndex] = true
			case "transcode", "convert":
				if track, ok := byIndex[inc.TrackIndex]; ok {
					track.Codec = inc.TargetCodec
				}
			}
		}
	}

	kept := out.Tracks[:0]
	for _, track := range out.Tracks {
		if !removed[track.Index] {
			kept = append(kept, track)
		}
	}
	out.Tracks = kept

	if p.HasSynthesis() {
		for _, op := range p.Audio.Synthesis {
			out.Tracks = append(out.Tracks, synthesizedTrack(out.Tracks, op.Target))
		}
	}

	if len(p.TrackOrder) > 0 {
		out.Tracks = reorder(out.Tracks, p.TrackOrder)
	}
	for i := range out.Tracks {
		out.Tracks[i].Index = i
	}

	if p.Container != nil {
		out.Format = media.NormalizeFormat(p.Container.Target)
	}
	return out, nil
}

func applyAction(container *media.Container, byIndex map[int]*media.Track, action plan.Action) error {
	if action.Type == plan.ActionSetContainerMetadata {
		if container.Tags == nil {
			container.Tags = make(map[string]string)
		}
		container.Tags[action.Field] = action.Desired
		return nil
	}

	track, ok := byIndex[action.TrackIndex]
	if !ok {
		return services.Wrap(services.ErrPlan, "snapshot", "apply",
			fmt.Sprintf("action %s targets unknown track %d", action.Type, action.TrackIndex), nil)
	}
	switch action.Type {
	case plan.ActionSetDefault:
		track.Default = action.Desired == "true"
	case plan.ActionSetForced:
		track.Forced = action.Desired == "true"
	case plan.ActionSetLanguage:
		track.Language = action.Desired
	default:
		return services.Wrap(services.ErrPlan, "snapshot", "apply",
			fmt.Sprintf("unsupported action type %q", action.Type), nil)
	}
	return nil
}

func synthesizedTrack(existing []media.Track, target synth.Target) media.Track {
	next := 0
	for _, track := range existing {
		if track.Index >= next {
			next = track.Index + 1
		}
	}
	return media.Track{
		Index:    next,
		Type:     media.TrackAudio,
		Codec:    target.Codec,
		Language: target.Language,
		Title:    target.Title,
		Channels: target.Channels,
	}
}

func reorder(tracks []media.Track, order []int) []media.Track {
	byIndex := make(map[int]media.Track, len(tracks))
	for _, track := range tracks {
		byIndex[track.Index] = track
	}
	placed := make(map[int]bool, len(order))
	out := make([]media.Track, 0, len(tracks))
	for _, idx := range order {
		if track, ok := byIndex[idx]; ok {
			out = append(out, track)
			placed[idx] = true
		}
	}
	for _, track := range tracks {
		if !placed[track.Index] {
			out = append(out, track)
		}
	}
	return out
}
