package plan

import (
	"reflect"
	"testing"

	"medley/internal/media"
	"medley/internal/rules"
)

func testContainer() media.Container {
	return media.Container{
		Path:   "/library/movie.mkv",
		Format: "matroska,webm",
		Size:   4 << 30,
		Tags:   map[string]string{"title": "Movie"},
		Tracks: []media.Track{
			{Index: 0, Type: media.TrackVideo, Codec: "hevc", Language: "und"},
			{Index: 1, Type: media.TrackAudio, Codec: "truehd", Language: "eng", Channels: 8, Default: true},
			{Index: 2, Type: media.TrackAudio, Codec: "aac", Language: "jpn", Channels: 2},
			{Index: 3, Type: media.TrackAudio, Codec: "ac3", Language: "eng", Channels: 2, Title: "Director Commentary"},
			{Index: 4, Type: media.TrackSubtitle, Codec: "subrip", Language: "eng"},
			{Index: 5, Type: media.TrackSubtitle, Codec: "subrip", Language: "jpn", Forced: true},
		},
	}
}

func testContext() *rules.Context {
	return &rules.Context{Container: testContainer()}
}

func emptyResult() *rules.Result {
	return &rules.Result{SkipFlags: map[rules.SkipFlag]bool{}}
}

func TestBuildIsIdempotent(t *testing.T) {
	cfg := Config{
		Order:   OrderConfig{Languages: []string{"eng"}},
		Filters: FiltersConfig{Audio: TypeFilter{KeepLanguages: []string{"eng"}}},
	}
	result := emptyResult()
	result.FlagChanges = []rules.FlagChange{{TrackIndex: 3, Field: "default", Value: true}}

	first := Build(testContext(), result, cfg, nil, "v1")
	second := Build(testContext(), result, cfg, nil, "v1")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildEmptyPlan(t *testing.T) {
	p := Build(testContext(), emptyResult(), Config{}, nil, "v1")
	if !p.IsEmpty() {
		t.Fatalf("expected empty plan, got %+v", p)
	}
}

func TestBuildReordersTracksByLanguage(t *testing.T) {
	ctx := testContext()
	// jpn preferred: the jpn audio and subtitle move ahead of the eng ones.
	cfg := Config{Order: OrderConfig{Languages: []string{"jpn", "eng"}}}

	p := Build(ctx, emptyResult(), cfg, nil, "v1")
	if len(p.Actions) != 1 || p.Actions[0].Type != ActionReorderTracks {
		t.Fatalf("expected one reorder action, got %+v", p.Actions)
	}
	want := []int{0, 2, 1, 3, 5, 4}
	if !reflect.DeepEqual(p.TrackOrder, want) {
		t.Fatalf("track order = %v, want %v", p.TrackOrder, want)
	}
	if p.IsEmpty() {
		t.Fatal("reordering plan must not be empty")
	}
}

func TestBuildNoReorderWhenAlreadyOrdered(t *testing.T) {
	ctx := &rules.Context{Container: media.Container{
		Path:   "/library/ordered.mkv",
		Format: "matroska",
		Tracks: []media.Track{
			{Index: 0, Type: media.TrackVideo, Codec: "hevc"},
			{Index: 1, Type: media.TrackAudio, Codec: "eac3", Language: "eng", Default: true},
			{Index: 2, Type: media.TrackAudio, Codec: "aac", Language: "jpn"},
			{Index: 3, Type: media.TrackAudio, Codec: "ac3", Language: "eng", Title: "Commentary"},
			{Index: 4, Type: media.TrackSubtitle, Codec: "subrip", Language: "eng"},
		},
	}}
	cfg := Config{Order: OrderConfig{Languages: []string{"eng"}}}
	p := Build(ctx, emptyResult(), cfg, nil, "v1")
	if len(p.TrackOrder) != 0 {
		t.Fatalf("unexpected reorder: %v", p.TrackOrder)
	}
	if !p.IsEmpty() {
		t.Fatalf("expected empty plan, got %+v", p)
	}
}

func TestBuildFiltersTracks(t *testing.T) {
	cfg := Config{
		Filters: FiltersConfig{
			Audio:    TypeFilter{KeepLanguages: []string{"eng"}, RemoveCommentary: true},
			Subtitle: TypeFilter{KeepLanguages: []string{"eng"}, PreserveForced: true},
		},
	}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")

	removedIndices := map[int]bool{}
	for _, d := range p.RemovedTracks() {
		removedIndices[d.Track.Index] = true
	}
	// commentary and jpn audio go, the forced jpn subtitle stays.
	if !removedIndices[2] || !removedIndices[3] {
		t.Fatalf("expected tracks 2 and 3 removed, got %v", removedIndices)
	}
	if removedIndices[5] {
		t.Fatal("forced subtitle should be preserved")
	}
	if removedIndices[0] || removedIndices[1] || removedIndices[4] {
		t.Fatalf("unexpected removals: %v", removedIndices)
	}
}

func TestBuildForcedClearedSubtitleNotPreserved(t *testing.T) {
	cfg := Config{
		Filters: FiltersConfig{Subtitle: TypeFilter{KeepLanguages: []string{"eng"}, PreserveForced: true}},
	}
	result := emptyResult()
	result.FlagChanges = []rules.FlagChange{{TrackIndex: 5, Field: "forced", Value: false}}

	p := Build(testContext(), result, cfg, nil, "v1")
	for _, d := range p.Dispositions {
		if d.Track.Index == 5 && d.Keep {
			t.Fatal("subtitle whose forced flag is being cleared must not be preserved")
		}
	}
}

func TestBuildNeverRemovesAllAudio(t *testing.T) {
	cfg := Config{Filters: FiltersConfig{Audio: TypeFilter{KeepLanguages: []string{"fra"}}}}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")

	for _, d := range p.Dispositions {
		if d.Track.Type == media.TrackAudio && !d.Keep {
			t.Fatalf("audio track %d removed despite guard", d.Track.Index)
		}
	}
	if len(p.Warnings) == 0 {
		t.Fatal("expected a warning about the cancelled audio filter")
	}
}

func TestBuildSkipTrackFilterFlag(t *testing.T) {
	cfg := Config{Filters: FiltersConfig{Audio: TypeFilter{KeepLanguages: []string{"eng"}}}}
	result := emptyResult()
	result.SkipFlags[rules.SkipTrackFilter] = true

	p := Build(testContext(), result, cfg, nil, "v1")
	if len(p.Dispositions) != 0 {
		t.Fatalf("filtering should be skipped, got %+v", p.Dispositions)
	}
}

func TestBuildMergesRuleChanges(t *testing.T) {
	result := emptyResult()
	result.FlagChanges = []rules.FlagChange{
		{TrackIndex: 1, Field: "default", Value: true}, // already default, no-op
		{TrackIndex: 3, Field: "default", Value: true},
		{TrackIndex: 3, Field: "default", Value: false}, // last write wins, back to current
		{TrackIndex: 5, Field: "forced", Value: false},
	}
	result.LanguageChanges = []rules.LanguageChange{
		{TrackIndex: 0, Language: "eng"},
		{TrackIndex: 1, Language: "eng"}, // no-op
	}
	result.ContainerChanges = []rules.MetadataChange{
		{Field: "title", Value: "Movie"}, // no-op
		{Field: "comment", Value: "processed"},
	}

	p := Build(testContext(), result, Config{}, nil, "v1")

	byKey := map[string]Action{}
	for _, a := range p.Actions {
		byKey[string(a.Type)+"/"+a.Field+"/"+itoa(a.TrackIndex)] = a
	}
	if len(p.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %+v", p.Actions)
	}
	if _, ok := byKey["set_default/default/3"]; ok {
		t.Fatal("final default value matches current state and should be elided")
	}
	if a := byKey["set_forced/forced/5"]; a.Current != "true" || a.Desired != "false" {
		t.Fatalf("unexpected forced action %+v", a)
	}
	if a := byKey["set_language/language/0"]; a.Current != "und" || a.Desired != "eng" {
		t.Fatalf("unexpected language action %+v", a)
	}
	if a := byKey["set_container_metadata/comment/-1"]; a.Desired != "processed" {
		t.Fatalf("unexpected metadata action %+v", a)
	}
}

func TestBuildDropsActionsOnRemovedTracks(t *testing.T) {
	cfg := Config{Filters: FiltersConfig{Audio: TypeFilter{RemoveCommentary: true}}}
	result := emptyResult()
	result.FlagChanges = []rules.FlagChange{{TrackIndex: 3, Field: "default", Value: true}}

	p := Build(testContext(), result, cfg, nil, "v1")
	for _, a := range p.Actions {
		if a.TrackIndex == 3 {
			t.Fatalf("action targets removed track: %+v", a)
		}
	}
}

func TestBuildContainerConversion(t *testing.T) {
	cfg := Config{Conversion: ConversionConfig{TargetFormat: "mp4"}}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")

	if p.Container == nil {
		t.Fatal("expected container change")
	}
	if p.Container.Source != "mkv" || p.Container.Target != "mp4" {
		t.Fatalf("unexpected change %+v", p.Container)
	}

	byIndex := map[int]IncompatibleTrack{}
	for _, it := range p.Container.IncompatibleTracks {
		byIndex[it.TrackIndex] = it
	}
	if it := byIndex[1]; it.Action != "transcode" || it.TargetCodec != "eac3" || it.Bitrate != "640k" {
		t.Fatalf("truehd handling = %+v", it)
	}
	if it := byIndex[4]; it.Action != "convert" || it.TargetCodec != "mov_text" {
		t.Fatalf("subrip handling = %+v", it)
	}
	if _, ok := byIndex[0]; ok {
		t.Fatal("hevc is mp4 compatible and needs no entry")
	}
	if _, ok := byIndex[2]; ok {
		t.Fatal("aac is mp4 compatible and needs no entry")
	}
}

func TestBuildConversionCustomMapping(t *testing.T) {
	cfg := Config{Conversion: ConversionConfig{
		TargetFormat: "mp4",
		CodecMappings: map[string]CodecMapping{
			// alias spelling on purpose
			"mlp": {Action: "transcode", Codec: "aac", Bitrate: "320k"},
		},
	}}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")

	var got *IncompatibleTrack
	for i, it := range p.Container.IncompatibleTracks {
		if it.TrackIndex == 1 {
			got = &p.Container.IncompatibleTracks[i]
		}
	}
	if got == nil || got.TargetCodec != "aac" || got.Bitrate != "320k" {
		t.Fatalf("custom mapping not applied: %+v", got)
	}
	if got.Reason != "truehd -> aac (custom mapping)" {
		t.Fatalf("unexpected reason %q", got.Reason)
	}
}

func TestBuildConversionSkipAudioTranscode(t *testing.T) {
	cfg := Config{Conversion: ConversionConfig{TargetFormat: "mp4"}}
	result := emptyResult()
	result.SkipFlags[rules.SkipAudioTranscode] = true

	p := Build(testContext(), result, cfg, nil, "v1")
	for _, it := range p.Container.IncompatibleTracks {
		if it.TrackType == media.TrackAudio {
			t.Fatalf("audio transcode planned despite skip flag: %+v", it)
		}
	}
	if len(p.Container.Warnings) == 0 {
		t.Fatal("expected warning for skipped incompatible audio")
	}
}

func TestBuildConversionRemovedTracksExcluded(t *testing.T) {
	// jpn-only audio removes the truehd track whose codec would otherwise
	// require a transcode entry.
	cfg := Config{
		Filters:    FiltersConfig{Audio: TypeFilter{KeepLanguages: []string{"jpn"}}},
		Conversion: ConversionConfig{TargetFormat: "mp4"},
	}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")
	for _, it := range p.Container.IncompatibleTracks {
		if it.TrackIndex == 1 {
			t.Fatal("removed track should not be considered for conversion")
		}
	}
}

func TestBuildSameFormatNoConversion(t *testing.T) {
	cfg := Config{Conversion: ConversionConfig{TargetFormat: "mkv"}}
	p := Build(testContext(), emptyResult(), cfg, nil, "v1")
	if p.Container != nil {
		t.Fatalf("matroska is already mkv, got %+v", p.Container)
	}
}

func TestCodecAliases(t *testing.T) {
	cases := [][2]string{
		{"h265", "hevc"},
		{"x264", "avc"},
		{"dts-hd ma", "dts-hd"},
		{"e-ac-3", "ddp"},
		{"ac-3", "dd"},
		{"srt", "subrip"},
		{"tx3g", "mov_text"},
	}
	for _, c := range cases {
		if !CodecsMatch(c[0], c[1]) {
			t.Errorf("CodecsMatch(%q, %q) = false", c[0], c[1])
		}
	}
	if CodecsMatch("hevc", "h264") {
		t.Error("hevc should not match h264")
	}
	if CanonicalCodec("DTS-HD MA") != "dts-hd" {
		t.Errorf("CanonicalCodec is not case folding: %q", CanonicalCodec("DTS-HD MA"))
	}
}

func itoa(n int) string {
	if n == -1 {
		return "-1"
	}
	return string(rune('0' + n))
}
