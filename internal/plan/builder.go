package plan

import (
	"fmt"
	"sort"
	"strings"

	"medley/internal/media"
	"medley/internal/rules"
)

// Build assembles the plan for one container from the rule engine result,
// the planner config, and an optional pre-resolved audio plan. Sub-steps run
// in a fixed order: track ordering, track filtering, rule change merge,
// container conversion. Inputs are never mutated; calling Build twice with
// the same inputs yields structurally equal plans.
func Build(ctx *rules.Context, result *rules.Result, cfg Config, audio *AudioPlan, policyVersion string) *Plan {
	container := ctx.Container
	p := &Plan{
		Path:          container.Path,
		PolicyVersion: policyVersion,
	}

	order := desiredOrder(container, cfg.Order)
	if !isCurrentOrder(order) {
		p.TrackOrder = trackIndices(container, order)
		p.Actions = append(p.Actions, Action{
			Type:       ActionReorderTracks,
			TrackIndex: -1,
			Current:    formatOrder(trackIndices(container, currentOrder(container))),
			Desired:    formatOrder(p.TrackOrder),
		})
	}

	removed := map[int]bool{}
	if !result.Skipped(rules.SkipTrackFilter) {
		p.Dispositions = buildDispositions(ctx, result, cfg.Filters, &p.Warnings)
		for _, d := range p.Dispositions {
			if !d.Keep {
				removed[d.Track.Index] = true
			}
		}
	}

	p.Actions = append(p.Actions, mergeRuleChanges(container, result, removed)...)

	if change := buildContainerChange(container, result, cfg.Conversion, removed); change != nil {
		p.Container = change
	}

	if audio != nil {
		audio := *audio
		if result.Skipped(rules.SkipSynthesis) {
			audio.Synthesis = nil
		}
		if len(audio.Synthesis) > 0 || len(audio.Skipped) > 0 {
			p.Audio = &audio
		}
	}

	p.Warnings = append(p.Warnings, result.Warnings...)
	return p
}

// desiredOrder returns the track indices in target order. The sort is stable
// over the original index so equal keys preserve source order.
func desiredOrder(container media.Container, cfg OrderConfig) []int {
	order := currentOrder(container)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := container.Tracks[order[i]], container.Tracks[order[j]]
		if ra, rb := typeRank(a.Type, cfg.Types), typeRank(b.Type, cfg.Types); ra != rb {
			return ra < rb
		}
		return media.OrderKeyFor(a, cfg.Languages).Less(media.OrderKeyFor(b, cfg.Languages))
	})
	return order
}

func trackIndices(container media.Container, positions []int) []int {
	out := make([]int, len(positions))
	for i, pos := range positions {
		out[i] = container.Tracks[pos].Index
	}
	return out
}

func currentOrder(container media.Container) []int {
	order := make([]int, len(container.Tracks))
	for i := range container.Tracks {
		order[i] = i
	}
	return order
}

func isCurrentOrder(order []int) bool {
	for i, idx := range order {
		if i != idx {
			return false
		}
	}
	return true
}

func typeRank(tt media.TrackType, types []media.TrackType) int {
	if len(types) == 0 {
		types = []media.TrackType{media.TrackVideo, media.TrackAudio, media.TrackSubtitle, media.TrackAttachment}
	}
	for i, t := range types {
		if t == tt {
			return i
		}
	}
	return len(types)
}

func formatOrder(order []int) string {
	parts := make([]string, len(order))
	for i, idx := range order {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, ",")
}

// buildDispositions decides keep/remove for every track. Video is never
// filtered. If filtering would remove every audio track the removals are
// cancelled and a warning recorded instead.
func buildDispositions(ctx *rules.Context, result *rules.Result, cfg FiltersConfig, warnings *[]string) []Disposition {
	container := ctx.Container
	dispositions := make([]Disposition, 0, len(container.Tracks))

	forcedCleared := map[int]bool{}
	for _, fc := range result.FlagChanges {
		if fc.Field == "forced" && !fc.Value {
			forcedCleared[fc.TrackIndex] = true
		}
	}

	styledSubsSurvive := false
	for _, track := range container.Tracks {
		if track.Type != media.TrackSubtitle {
			continue
		}
		keep, _ := subtitleDisposition(track, cfg.Subtitle, forcedCleared)
		if keep && CanonicalCodec(track.Codec) == "ass" {
			styledSubsSurvive = true
		}
	}

	audioKept := 0
	audioTotal := 0
	for _, track := range container.Tracks {
		d := Disposition{Track: track, Keep: true}
		switch track.Type {
		case media.TrackAudio:
			audioTotal++
			d.Keep, d.Reason = audioDisposition(ctx, track, cfg.Audio)
			if d.Keep {
				audioKept++
			}
		case media.TrackSubtitle:
			d.Keep, d.Reason = subtitleDisposition(track, cfg.Subtitle, forcedCleared)
		case media.TrackAttachment:
			d.Keep, d.Reason = attachmentDisposition(track, cfg.Attachment, styledSubsSurvive)
		}
		dispositions = append(dispositions, d)
	}

	if audioTotal > 0 && audioKept == 0 {
		for i := range dispositions {
			if dispositions[i].Track.Type == media.TrackAudio {
				dispositions[i].Keep = true
				dispositions[i].Reason = "retained: filter would remove every audio track"
			}
		}
		*warnings = append(*warnings, "audio filter matched no tracks; keeping all audio")
	}

	return dispositions
}

func audioDisposition(ctx *rules.Context, track media.Track, cfg TypeFilter) (bool, string) {
	if cfg.RemoveAll {
		return false, "audio removal requested by policy"
	}
	if cfg.RemoveCommentary && ctx.IsCommentaryTrack(track) {
		return false, "commentary track"
	}
	if len(cfg.KeepLanguages) > 0 && !matchesAnyLanguage(track, cfg.KeepLanguages) {
		return false, fmt.Sprintf("language %q not in keep list", track.Language)
	}
	return true, ""
}

func subtitleDisposition(track media.Track, cfg TypeFilter, forcedCleared map[int]bool) (bool, string) {
	if cfg.RemoveAll {
		if cfg.PreserveForced && track.Forced && !forcedCleared[track.Index] {
			return true, "forced subtitle preserved"
		}
		return false, "subtitle removal requested by policy"
	}
	if len(cfg.KeepLanguages) > 0 && !matchesAnyLanguage(track, cfg.KeepLanguages) {
		if cfg.PreserveForced && track.Forced && !forcedCleared[track.Index] {
			return true, "forced subtitle preserved"
		}
		return false, fmt.Sprintf("language %q not in keep list", track.Language)
	}
	return true, ""
}

func attachmentDisposition(track media.Track, cfg AttachmentFilter, styledSubsSurvive bool) (bool, string) {
	if cfg.KeepAll {
		return true, ""
	}
	if styledSubsSurvive && isFontAttachment(track) {
		return true, "font needed by styled subtitles"
	}
	return false, "attachment removal requested by policy"
}

func isFontAttachment(track media.Track) bool {
	if mime, ok := track.Tags["mimetype"]; ok && strings.Contains(strings.ToLower(mime), "font") {
		return true
	}
	switch CanonicalCodec(track.Codec) {
	case "ttf", "otf", "woff", "woff2":
		return true
	}
	return false
}

func matchesAnyLanguage(track media.Track, languages []string) bool {
	for _, lang := range languages {
		if track.LanguageMatches(lang) {
			return true
		}
	}
	return false
}

// mergeRuleChanges folds the rule engine's flag, language, and container
// metadata changes into actions. Changes are deduplicated by (track, field)
// with the last write winning, actions on removed tracks are dropped, and
// final values that match the current state are elided so replanning an
// already conformant file yields no actions.
func mergeRuleChanges(container media.Container, result *rules.Result, removed map[int]bool) []Action {
	type key struct {
		track int
		field string
	}
	slots := map[key]int{}
	var actions []Action

	upsert := func(a Action) {
		k := key{a.TrackIndex, a.Field}
		if i, ok := slots[k]; ok {
			actions[i] = a
			return
		}
		slots[k] = len(actions)
		actions = append(actions, a)
	}

	trackByIndex := map[int]media.Track{}
	for _, track := range container.Tracks {
		trackByIndex[track.Index] = track
	}

	for _, fc := range result.FlagChanges {
		if removed[fc.TrackIndex] {
			continue
		}
		track, ok := trackByIndex[fc.TrackIndex]
		if !ok {
			continue
		}
		current := track.Default
		actionType := ActionSetDefault
		if fc.Field == "forced" {
			current = track.Forced
			actionType = ActionSetForced
		}
		upsert(Action{
			Type:       actionType,
			TrackIndex: fc.TrackIndex,
			Field:      fc.Field,
			Current:    fmt.Sprintf("%t", current),
			Desired:    fmt.Sprintf("%t", fc.Value),
		})
	}

	for _, lc := range result.LanguageChanges {
		if removed[lc.TrackIndex] {
			continue
		}
		track, ok := trackByIndex[lc.TrackIndex]
		if !ok {
			continue
		}
		upsert(Action{
			Type:       ActionSetLanguage,
			TrackIndex: lc.TrackIndex,
			Field:      "language",
			Current:    track.Language,
			Desired:    lc.Language,
		})
	}

	for _, mc := range result.ContainerChanges {
		current, _ := container.Tag(mc.Field)
		upsert(Action{
			Type:       ActionSetContainerMetadata,
			TrackIndex: -1,
			Field:      mc.Field,
			Current:    current,
			Desired:    mc.Value,
		})
	}

	// Elide no-op writes after deduplication so the surviving write decides.
	out := actions[:0]
	for _, a := range actions {
		if a.Type == ActionSetLanguage && strings.EqualFold(a.Current, a.Desired) {
			continue
		}
		if a.Current == a.Desired {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// buildContainerChange decides the format conversion and the per-track work
// it implies. Incompatible codecs resolve through policy codec mappings
// first, then built-in defaults. Transcode skip flags downgrade the
// affected tracks to warnings.
func buildContainerChange(container media.Container, result *rules.Result, cfg ConversionConfig, removed map[int]bool) *ContainerChange {
	if cfg.TargetFormat == "" {
		return nil
	}
	source := media.NormalizeFormat(container.Format)
	target := media.NormalizeFormat(cfg.TargetFormat)
	if source == target {
		return nil
	}

	change := &ContainerChange{Source: source, Target: target}
	if target != "mp4" {
		return change
	}

	for _, track := range container.Tracks {
		if removed[track.Index] {
			continue
		}
		if IsMP4Compatible(string(track.Type), track.Codec) {
			continue
		}
		incompatible := resolveIncompatible(track, result, cfg)
		if incompatible == nil {
			continue
		}
		if incompatible.Action == "warn" {
			change.Warnings = append(change.Warnings, incompatible.Reason)
			continue
		}
		change.IncompatibleTracks = append(change.IncompatibleTracks, *incompatible)
	}
	return change
}

func resolveIncompatible(track media.Track, result *rules.Result, cfg ConversionConfig) *IncompatibleTrack {
	out := &IncompatibleTrack{
		TrackIndex:  track.Index,
		TrackType:   track.Type,
		SourceCodec: CanonicalCodec(track.Codec),
	}

	if mapping, ok := lookupCodecMapping(cfg.CodecMappings, track.Codec); ok {
		out.Action = mapping.Action
		out.TargetCodec = mapping.Codec
		out.Bitrate = mapping.Bitrate
		if out.Action == "" {
			out.Action = "transcode"
		}
		out.Reason = fmt.Sprintf("%s -> %s (custom mapping)", out.SourceCodec, mapping.Codec)
		if mapping.Action == "remove" {
			out.Reason = fmt.Sprintf("%s removed (custom mapping)", out.SourceCodec)
		}
		return out
	}

	switch track.Type {
	case media.TrackVideo:
		if result.Skipped(rules.SkipVideoTranscode) {
			out.Action = "warn"
			out.Reason = fmt.Sprintf("video track %d (%s) incompatible with mp4; transcode skipped", track.Index, out.SourceCodec)
			return out
		}
		out.Action = "transcode"
		out.TargetCodec = "h264"
		out.Reason = fmt.Sprintf("%s -> h264 (mp4 compatibility)", out.SourceCodec)
	case media.TrackAudio:
		if result.Skipped(rules.SkipAudioTranscode) {
			out.Action = "warn"
			out.Reason = fmt.Sprintf("audio track %d (%s) incompatible with mp4; transcode skipped", track.Index, out.SourceCodec)
			return out
		}
		mapping := audioTranscodeDefault(track.Codec)
		out.Action = mapping.Action
		out.TargetCodec = mapping.Codec
		out.Bitrate = mapping.Bitrate
		out.Reason = fmt.Sprintf("%s -> %s (mp4 compatibility)", out.SourceCodec, mapping.Codec)
	case media.TrackSubtitle:
		switch {
		case IsBitmapSubtitle(track.Codec):
			out.Action = "remove"
			out.Reason = fmt.Sprintf("bitmap subtitle %s has no mp4 representation", out.SourceCodec)
		case IsConvertibleSubtitle(track.Codec):
			out.Action = "convert"
			out.TargetCodec = "mov_text"
			out.Reason = fmt.Sprintf("%s -> mov_text (mp4 compatibility)", out.SourceCodec)
		default:
			out.Action = "remove"
			out.Reason = fmt.Sprintf("subtitle codec %s not convertible for mp4", out.SourceCodec)
		}
	case media.TrackAttachment:
		out.Action = "remove"
		out.Reason = "mp4 does not carry attachments"
	default:
		return nil
	}
	return out
}

func lookupCodecMapping(mappings map[string]CodecMapping, codec string) (CodecMapping, bool) {
	if len(mappings) == 0 {
		return CodecMapping{}, false
	}
	canonical := CanonicalCodec(codec)
	for key, mapping := range mappings {
		if CanonicalCodec(key) == canonical {
			return mapping, true
		}
	}
	return CodecMapping{}, false
}
