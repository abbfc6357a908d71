package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"medley/internal/executor"
	"medley/internal/media"
	"medley/internal/plan"
	"medley/internal/services"
	"medley/internal/synth"
)

func sampleContainer(path string) media.Container {
	return media.Container{
		Path:   path,
		Format: "matroska",
		Size:   1 << 30,
		Tracks: []media.Track{
			{Index: 0, Type: media.TrackVideo, Codec: "hevc"},
			{Index: 1, Type: media.TrackAudio, Codec: "truehd", Language: "eng", Channels: 8, Default: true},
			{Index: 2, Type: media.TrackAudio, Codec: "aac", Language: "jpn", Channels: 2},
			{Index: 3, Type: media.TrackSubtitle, Codec: "subrip", Language: "eng"},
		},
	}
}

func writeSnapshot(t *testing.T, dir string, c media.Container) string {
	t.Helper()
	data, err := Encode(c)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(dir, "movie.mkv.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestDocumentPath(t *testing.T) {
	if got := DocumentPath("/lib/movie.mkv"); got != "/lib/movie.mkv.json" {
		t.Fatalf("sidecar path = %q", got)
	}
	if got := DocumentPath("/lib/movie.mkv.json"); got != "/lib/movie.mkv.json" {
		t.Fatalf("direct path = %q", got)
	}
}

func TestLoadSidecarAndDirect(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mkv")
	writeSnapshot(t, dir, sampleContainer(mediaPath))

	c, err := Load(mediaPath)
	if err != nil {
		t.Fatalf("Load via sidecar: %v", err)
	}
	if len(c.Tracks) != 4 || c.Path != mediaPath {
		t.Fatalf("unexpected container: %+v", c)
	}

	c, err = Load(mediaPath + ".json")
	if err != nil {
		t.Fatalf("Load direct: %v", err)
	}
	if c.Format != "matroska" {
		t.Fatalf("unexpected format %q", c.Format)
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.mkv"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("{not json"), "x.mkv")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestApplyActionsRemovalsAndOrder(t *testing.T) {
	c := sampleContainer("/lib/movie.mkv")
	p := &plan.Plan{
		Path: "/lib/movie.mkv",
		Actions: []plan.Action{
			{Type: plan.ActionSetDefault, TrackIndex: 2, Desired: "true"},
			{Type: plan.ActionSetDefault, TrackIndex: 1, Desired: "false"},
			{Type: plan.ActionSetLanguage, TrackIndex: 3, Desired: "en"},
			{Type: plan.ActionSetContainerMetadata, TrackIndex: -1, Field: "comment", Desired: "cleaned"},
		},
		Dispositions: []plan.Disposition{
			{Track: c.Tracks[1], Keep: false, Reason: "language filter"},
		},
		TrackOrder: []int{0, 2, 1, 3},
	}

	out, err := Apply(c, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(out.Tracks))
	}
	// truehd removed; jpn audio promoted to position 1, renumbered.
	if out.Tracks[1].Codec != "aac" || !out.Tracks[1].Default || out.Tracks[1].Index != 1 {
		t.Fatalf("track 1 = %+v", out.Tracks[1])
	}
	if out.Tracks[2].Language != "en" {
		t.Fatalf("subtitle language = %q", out.Tracks[2].Language)
	}
	if out.Tags["comment"] != "cleaned" {
		t.Fatalf("tags = %v", out.Tags)
	}
	// Source container untouched.
	if !c.Tracks[1].Default || c.Tags != nil {
		t.Fatalf("input mutated: %+v", c)
	}
}

func TestApplyContainerConversion(t *testing.T) {
	c := sampleContainer("/lib/movie.mkv")
	p := &plan.Plan{
		Path: "/lib/movie.mkv",
		Container: &plan.ContainerChange{
			Source: "matroska",
			Target: "mp4",
			IncompatibleTracks: []plan.IncompatibleTrack{
				{TrackIndex: 1, TrackType: media.TrackAudio, SourceCodec: "truehd", Action: "transcode", TargetCodec: "eac3", Bitrate: "640k"},
				{TrackIndex: 3, TrackType: media.TrackSubtitle, SourceCodec: "subrip", Action: "convert", TargetCodec: "mov_text"},
			},
		},
	}

	out, err := Apply(c, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Format != "mp4" {
		t.Fatalf("format = %q", out.Format)
	}
	if out.Tracks[1].Codec != "eac3" || out.Tracks[3].Codec != "mov_text" {
		t.Fatalf("codecs = %q %q", out.Tracks[1].Codec, out.Tracks[3].Codec)
	}
}

func TestApplySynthesisAppendsTrack(t *testing.T) {
	c := sampleContainer("/lib/movie.mkv")
	p := &plan.Plan{
		Path: "/lib/movie.mkv",
		Audio: &plan.AudioPlan{
			Synthesis: []synth.Operation{
				{
					Target:      synth.Target{Codec: "eac3", Channels: 6, Language: "eng", Title: "Surround"},
					SourceIndex: 1,
					Encoder:     "eac3",
				},
				{
					Target:      synth.Target{Codec: "aac", Channels: 2, Language: "eng", Title: "Stereo"},
					SourceIndex: 1,
					Encoder:     "aac",
				},
			},
		},
	}

	out, err := Apply(c, p)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	stereo := out.Tracks[len(out.Tracks)-1]
	surround := out.Tracks[len(out.Tracks)-2]
	if surround.Codec != "eac3" || surround.Channels != 6 || surround.Title != "Surround" {
		t.Fatalf("synthesized surround track = %+v", surround)
	}
	if stereo.Codec != "aac" || stereo.Channels != 2 || stereo.Title != "Stereo" {
		t.Fatalf("synthesized stereo track = %+v", stereo)
	}
	if stereo.Index != len(out.Tracks)-1 {
		t.Fatalf("expected renumbered index, got %d", stereo.Index)
	}
}

func TestApplyUnknownTrackFails(t *testing.T) {
	c := sampleContainer("/lib/movie.mkv")
	p := &plan.Plan{
		Actions: []plan.Action{{Type: plan.ActionSetDefault, TrackIndex: 9, Desired: "true"}},
	}
	if _, err := Apply(c, p); !errors.Is(err, services.ErrPlan) {
		t.Fatalf("expected ErrPlan, got %v", err)
	}
}

func TestExecutorRewritesDocument(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mkv")
	doc := writeSnapshot(t, dir, sampleContainer(mediaPath))

	p := &plan.Plan{
		Path: mediaPath,
		Actions: []plan.Action{
			{Type: plan.ActionSetDefault, TrackIndex: 2, Desired: "true"},
		},
	}

	result, err := Executor{}.Execute(context.Background(), p, executor.Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}

	updated, err := Load(mediaPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !updated.Tracks[2].Default {
		t.Fatalf("expected default flag persisted: %+v", updated.Tracks[2])
	}
	if _, err := os.Stat(doc + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("expected backup removed, stat err = %v", err)
	}
}

func TestExecutorKeepsBackupWhenAsked(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mkv")
	doc := writeSnapshot(t, dir, sampleContainer(mediaPath))

	p := &plan.Plan{
		Path:    mediaPath,
		Actions: []plan.Action{{Type: plan.ActionSetForced, TrackIndex: 3, Desired: "true"}},
	}
	if _, err := (Executor{}).Execute(context.Background(), p, executor.Options{KeepBackup: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(doc + ".bak"); err != nil {
		t.Fatalf("expected backup kept: %v", err)
	}
}
