package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medley/internal/media"
	"medley/internal/phase"
	"medley/internal/rules"
	"medley/internal/services"
	"medley/internal/synth"
)

const samplePolicy = `
version: 1
name: anime
track_order:
  types: [video, audio, subtitle, attachment]
  languages: [jpn, eng]
track_filters:
  audio:
    keep_languages: [jpn, eng]
    remove_commentary: true
  subtitle:
    keep_languages: [eng]
    preserve_forced: true
  attachment:
    keep_all: false
rules:
  - name: skip-small-files
    when: container_meta(filesize) < 700MB
    then:
      - skip: skip_all
      - warn: "skipping {filename}"
  - name: tag-original-language
    when: plugin(radarr, original_language) == jpn
    then:
      - set_default:
          type: audio
          language: jpn
          value: true
    else:
      - set_container_metadata:
          field: comment
          from_plugin: radarr.title
synthesis:
  - codec: eac3
    channels: 6
    language: eng
    title: Surround
    prefer:
      - language: eng
      - commentary: false
      - channels: max
    when: exists(audio, ch > 6)
    skip_if_exists: true
container:
  target_format: mp4
  codec_mappings:
    truehd:
      action: transcode
      codec: eac3
      bitrate: 640k
phases:
  - name: analyze
  - name: apply
    depends_on: [analyze]
    on_error: skip
    skip_when:
      mode: any
      checks:
        - file_smaller_than: 100MB
        - expression: count(audio) == 0
  - name: verify
    run_if: [apply]
    on_error: continue
`

func TestParseSamplePolicy(t *testing.T) {
	p, err := Parse([]byte(samplePolicy), "sample")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Version != 1 || p.Name != "anime" {
		t.Fatalf("header = %d %q", p.Version, p.Name)
	}
	if p.Fingerprint == "" || !strings.Contains(p.VersionLabel(), "anime/v1@") {
		t.Fatalf("version label = %q", p.VersionLabel())
	}

	if got := p.Order.Types; len(got) != 4 || got[0] != media.TrackVideo {
		t.Fatalf("order types = %v", got)
	}
	if !p.Filters.Audio.RemoveCommentary || !p.Filters.Subtitle.PreserveForced {
		t.Fatalf("filters = %+v", p.Filters)
	}

	if len(p.Rules) != 2 {
		t.Fatalf("rules = %d", len(p.Rules))
	}
	if p.Rules[0].When == nil || len(p.Rules[0].Then) != 2 {
		t.Fatalf("rule 0 = %+v", p.Rules[0])
	}
	if _, ok := p.Rules[0].Then[0].(rules.Skip); !ok {
		t.Fatalf("rule 0 action 0 = %T", p.Rules[0].Then[0])
	}
	meta, ok := p.Rules[1].Else[0].(rules.SetContainerMetadata)
	if !ok || meta.Value.Plugin != "radarr" || meta.Value.Field != "title" {
		t.Fatalf("rule 1 else = %+v", p.Rules[1].Else[0])
	}

	if len(p.Synthesis) != 1 {
		t.Fatalf("synthesis = %d", len(p.Synthesis))
	}
	target := p.Synthesis[0]
	if target.Codec != "eac3" || target.Channels != 6 || !target.SkipIfExists || target.When == nil {
		t.Fatalf("target = %+v", target)
	}
	if len(target.Prefer) != 3 || target.Prefer[2].ChannelMode != synth.ChannelsMax {
		t.Fatalf("prefer = %+v", target.Prefer)
	}

	if p.Conversion.TargetFormat != "mp4" {
		t.Fatalf("conversion = %+v", p.Conversion)
	}
	if m := p.Conversion.CodecMappings["truehd"]; m.Codec != "eac3" || m.Bitrate != "640k" {
		t.Fatalf("mapping = %+v", m)
	}

	if len(p.Phases) != 3 {
		t.Fatalf("phases = %d", len(p.Phases))
	}
	apply := p.Phases[1]
	if apply.OnError != phase.ErrorModeSkip || apply.SkipWhen == nil || len(apply.SkipWhen.Checks) != 2 {
		t.Fatalf("apply = %+v", apply)
	}
	if small, ok := apply.SkipWhen.Checks[0].(phase.FileSmallerThan); !ok || small.Bytes != 100e6 {
		t.Fatalf("check 0 = %+v", apply.SkipWhen.Checks[0])
	}
	if p.Phases[2].RunIf[0] != "apply" || p.Phases[2].OnError != phase.ErrorModeContinue {
		t.Fatalf("verify = %+v", p.Phases[2])
	}
}

func TestParseRejectsBadExpression(t *testing.T) {
	doc := `
version: 1
rules:
  - name: broken
    when: "exists(audio,"
    then:
      - skip: skip_all
`
	_, err := Parse([]byte(doc), "broken")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("error should name the rule: %v", err)
	}
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"wrong version", "version: 2\n", "unsupported schema version"},
		{"unknown field", "version: 1\nbogus: true\n", "bogus"},
		{"unknown skip flag", `
version: 1
rules:
  - name: r
    when: count(audio) > 0
    then:
      - skip: skip_everything
`, "skip_everything"},
		{"two action keys", `
version: 1
rules:
  - name: r
    when: count(audio) > 0
    then:
      - skip: skip_all
        warn: both
`, "exactly one action key"},
		{"forward dependency", `
version: 1
phases:
  - name: first
    depends_on: [second]
  - name: second
`, "not an earlier phase"},
		{"duplicate phase", `
version: 1
phases:
  - name: apply
  - name: apply
`, "duplicate phase"},
		{"bad on_error", `
version: 1
phases:
  - name: apply
    on_error: explode
`, "on_error"},
		{"synthesis codec unknown", `
version: 1
synthesis:
  - codec: midi
    channels: 2
`, "no encoder known"},
		{"value and from_plugin", `
version: 1
rules:
  - name: r
    when: count(audio) > 0
    then:
      - set_container_metadata:
          field: comment
          value: x
          from_plugin: radarr.title
`, "exactly one of value or from_plugin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), tc.name)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestParseByteSize(t *testing.T) {
	cases := map[string]int64{
		"700MB": 700e6,
		"4.2GB": 4200000000,
		"1024":  1024,
		"2k":    2000,
	}
	for text, want := range cases {
		got, err := parseByteSize(text)
		if err != nil {
			t.Fatalf("parseByteSize(%q): %v", text, err)
		}
		if got != want {
			t.Errorf("parseByteSize(%q) = %d, want %d", text, got, want)
		}
	}
	if _, err := parseByteSize("700MiB"); err == nil {
		t.Error("binary suffix should be rejected")
	}
}

func TestCacheReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	write := func(name string) {
		doc := "version: 1\nname: " + name + "\n"
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cache := NewCache()
	write("first")
	p1, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	again, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again != p1 {
		t.Fatal("unchanged file should hit the cache")
	}

	// Different size forces a reload even on coarse mtime resolution.
	write("second-revision")
	p2, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p2 == p1 || p2.Name != "second-revision" {
		t.Fatalf("expected reloaded policy, got %+v", p2)
	}

	cache.Clear()
	p3, err := cache.Get(path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p3 == p2 {
		t.Fatal("Clear should drop cached entries")
	}
}

func TestCacheMissingFile(t *testing.T) {
	cache := NewCache()
	_, err := cache.Get(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v", err)
	}
}
