package language

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "eng"},
		{"eng", "eng"},
		{"English", "eng"},
		{"en-US", "eng"},
		{"fre", "fra"},
		{"fra", "fra"},
		{"ger", "deu"},
		{"", "und"},
		{"und", "und"},
		{"zxx", "zxx"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatches(t *testing.T) {
	if !Matches("en", "eng") {
		t.Error("en should match eng")
	}
	if !Matches("fre", "fra") {
		t.Error("bibliographic fre should match fra")
	}
	if Matches("eng", "jpn") {
		t.Error("eng should not match jpn")
	}
	if Matches("und", "und") {
		t.Error("undetermined never matches")
	}
	if Matches("", "eng") {
		t.Error("empty never matches")
	}
}

func TestPreferenceIndex(t *testing.T) {
	prefs := []string{"eng", "jpn"}
	if got := PreferenceIndex("en", prefs); got != 0 {
		t.Errorf("PreferenceIndex(en) = %d, want 0", got)
	}
	if got := PreferenceIndex("ja", prefs); got != 1 {
		t.Errorf("PreferenceIndex(ja) = %d, want 1", got)
	}
	if got := PreferenceIndex("deu", prefs); got != 2 {
		t.Errorf("PreferenceIndex(deu) = %d, want len(prefs)", got)
	}
}

func TestExtractFromTags(t *testing.T) {
	tags := map[string]string{"LANGUAGE": " ENG "}
	if got := ExtractFromTags(tags); got != "eng" {
		t.Errorf("ExtractFromTags = %q, want eng", got)
	}
	if got := ExtractFromTags(nil); got != "" {
		t.Errorf("ExtractFromTags(nil) = %q, want empty", got)
	}
}
