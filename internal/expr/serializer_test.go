package expr

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	expressions := []string{
		"exists(audio, lang == eng)",
		"exists(audio, lang in [eng, jpn], codec in [hevc, h265])",
		"count(subtitle) >= 2",
		"count(audio, commentary == false) == 1",
		"exists(video, height >= 2160) and exists(audio, channels >= 6)",
		"exists(audio) or exists(subtitle) and not exists(attachment)",
		"(exists(audio) or exists(subtitle)) and not exists(attachment)",
		"not (exists(audio) and exists(subtitle))",
		"plugin(radarr, original_language) == jpn",
		"plugin(sonarr, series_type)",
		"container_meta(title) == \"Some Movie\"",
		"container_meta(filesize) > 700MB",
		"multi_language()",
		"multi_language(threshold == 0.3, primary_language == eng)",
		"is_original()",
		"is_original(value == false, lang == jpn)",
		"is_dubbed(min_confidence == 0.9)",
		"exists(subtitle, forced == true, default == false)",
		"exists(audio, title == \"Director Commentary\")",
	}
	for _, source := range expressions {
		first, err := Parse(source)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", source, err)
		}
		rendered := Serialize(first)
		second, err := Parse(rendered)
		if err != nil {
			t.Fatalf("reparse of %q (from %q) error: %v", rendered, source, err)
		}
		if !Equal(first, second) {
			t.Errorf("round trip changed AST:\n source: %s\n rendered: %s", source, rendered)
		}
	}
}

func TestSerializeMinimalParentheses(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{"exists(video) and exists(audio)", "exists(video) and exists(audio)"},
		{"(exists(video) or exists(audio)) and exists(subtitle)", "(exists(video) or exists(audio)) and exists(subtitle)"},
		{"exists(video) or exists(audio) and exists(subtitle)", "exists(video) or exists(audio) and exists(subtitle)"},
		{"not (exists(video) and exists(audio))", "not (exists(video) and exists(audio))"},
		{"not exists(video)", "not exists(video)"},
	}
	for _, tc := range cases {
		cond, err := Parse(tc.source)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.source, err)
		}
		if got := Serialize(cond); got != tc.want {
			t.Errorf("Serialize(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestSerializeElidesDefaults(t *testing.T) {
	cond := mustParse(t, "multi_language(threshold == 0.05)")
	if got := Serialize(cond); got != "multi_language()" {
		t.Errorf("default threshold should be elided, got %q", got)
	}
	cond = mustParse(t, "is_original(value == true, min_confidence == 0.7)")
	if got := Serialize(cond); got != "is_original()" {
		t.Errorf("default classification args should be elided, got %q", got)
	}
}

func TestSerializeQuoting(t *testing.T) {
	cond := mustParse(t, `exists(audio, title == "Director Commentary")`)
	want := `exists(audio, title == "Director Commentary")`
	if got := Serialize(cond); got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
	cond = mustParse(t, `exists(audio, title == commentary)`)
	if got := Serialize(cond); got != "exists(audio, title == commentary)" {
		t.Errorf("bare-safe strings should stay unquoted, got %q", got)
	}
}

func TestSerializeSizeUnits(t *testing.T) {
	cond := mustParse(t, "container_meta(filesize) > 4.2gb")
	if got := Serialize(cond); got != "container_meta(filesize) > 4.2GB" {
		t.Errorf("Serialize = %q", got)
	}
}
