package expr

import (
	"errors"
	"strings"
	"testing"

	"medley/internal/services"
)

func mustParse(t *testing.T, source string) Condition {
	t.Helper()
	cond, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", source, err)
	}
	return cond
}

func TestParsePrecedence(t *testing.T) {
	// "a or b and not c" groups as "a or (b and (not c))".
	cond := mustParse(t, "exists(video) or exists(audio) and not exists(subtitle)")
	or, ok := cond.(*Or)
	if !ok {
		t.Fatalf("root = %T, want *Or", cond)
	}
	if len(or.Children) != 2 {
		t.Fatalf("or children = %d, want 2", len(or.Children))
	}
	and, ok := or.Children[1].(*And)
	if !ok {
		t.Fatalf("second or child = %T, want *And", or.Children[1])
	}
	if _, ok := and.Children[1].(*Not); !ok {
		t.Fatalf("second and child = %T, want *Not", and.Children[1])
	}
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	cond := mustParse(t, "(exists(video) or exists(audio)) and exists(subtitle)")
	and, ok := cond.(*And)
	if !ok {
		t.Fatalf("root = %T, want *And", cond)
	}
	if _, ok := and.Children[0].(*Or); !ok {
		t.Fatalf("first and child = %T, want *Or", and.Children[0])
	}
}

func TestParseExistsFilters(t *testing.T) {
	cond := mustParse(t, "exists(audio, lang == eng, codec in [hevc, h265], channels >= 6, commentary == false)")
	exists, ok := cond.(*Exists)
	if !ok {
		t.Fatalf("root = %T, want *Exists", cond)
	}
	if exists.TrackType != "audio" {
		t.Errorf("track type = %q", exists.TrackType)
	}
	f := exists.Filters
	if len(f.Languages) != 1 || f.Languages[0] != "eng" {
		t.Errorf("languages = %v", f.Languages)
	}
	if len(f.Codecs) != 2 || f.Codecs[0] != "hevc" || f.Codecs[1] != "h265" {
		t.Errorf("codecs = %v", f.Codecs)
	}
	if f.Channels == nil || f.Channels.Op != OpGe || f.Channels.Value != 6 {
		t.Errorf("channels filter = %+v", f.Channels)
	}
	if f.Commentary == nil || *f.Commentary {
		t.Errorf("commentary filter = %v", f.Commentary)
	}
}

func TestParseFilterAliases(t *testing.T) {
	a := mustParse(t, "exists(audio, lang == eng)")
	b := mustParse(t, "exists(audio, language == eng)")
	if !Equal(a, b) {
		t.Error("lang and language aliases should parse identically")
	}
}

func TestParseCountComparison(t *testing.T) {
	cond := mustParse(t, "count(subtitle, lang == eng) >= 2")
	count, ok := cond.(*Count)
	if !ok {
		t.Fatalf("root = %T, want *Count", cond)
	}
	if count.Op != OpGe || count.Value != 2 {
		t.Errorf("comparison = %s %d", count.Op, count.Value)
	}
}

func TestParseCountRequiresComparison(t *testing.T) {
	if _, err := Parse("count(subtitle)"); err == nil {
		t.Fatal("expected error for count without comparison")
	}
}

func TestParseInvalidTrackType(t *testing.T) {
	_, err := Parse("exists(chapter)")
	if err == nil {
		t.Fatal("expected error for invalid track type")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if !strings.Contains(parseErr.Expected, "video") {
		t.Errorf("error should name valid track types, got %q", parseErr.Expected)
	}
}

func TestParsePluginComparison(t *testing.T) {
	cond := mustParse(t, "plugin(radarr, original_language) == jpn")
	pm, ok := cond.(*PluginMetadata)
	if !ok {
		t.Fatalf("root = %T, want *PluginMetadata", cond)
	}
	if pm.Plugin != "radarr" || pm.Field != "original_language" {
		t.Errorf("plugin ref = %q.%q", pm.Plugin, pm.Field)
	}
	if pm.Op != OpEq || pm.Value == nil || pm.Value.Str != "jpn" {
		t.Errorf("comparison = %s %+v", pm.Op, pm.Value)
	}
}

func TestParsePluginPresenceCheck(t *testing.T) {
	cond := mustParse(t, "plugin(radarr, original_language)")
	pm := cond.(*PluginMetadata)
	if pm.Op != "" || pm.Value != nil {
		t.Errorf("bare plugin call should be a presence check, got %s %+v", pm.Op, pm.Value)
	}
}

func TestParseContainerMetaSizeLiteral(t *testing.T) {
	cond := mustParse(t, "container_meta(filesize) > 4.2GB")
	cm := cond.(*ContainerMetadata)
	if cm.Value == nil || cm.Value.Kind != LiteralSize {
		t.Fatalf("value = %+v, want size literal", cm.Value)
	}
	if cm.Value.Bytes != int64(4.2*1e9) {
		t.Errorf("bytes = %d", cm.Value.Bytes)
	}
}

func TestParseMultiLanguageDefaults(t *testing.T) {
	cond := mustParse(t, "multi_language()")
	ml := cond.(*MultiLanguage)
	if ml.Threshold != 0.05 {
		t.Errorf("threshold = %v, want 0.05", ml.Threshold)
	}
	cond = mustParse(t, "multi_language(threshold == 0.3, track == 1, primary_language == eng)")
	ml = cond.(*MultiLanguage)
	if ml.Threshold != 0.3 || ml.TrackIndex == nil || *ml.TrackIndex != 1 || ml.PrimaryLanguage != "eng" {
		t.Errorf("multi_language = %+v", ml)
	}
}

func TestParseNotCommentaryAlias(t *testing.T) {
	cond := mustParse(t, "exists(audio, not_commentary == true)")
	ex := cond.(*Exists)
	if ex.Filters.Commentary == nil || *ex.Filters.Commentary {
		t.Errorf("not_commentary == true should select main tracks, got %+v", ex.Filters.Commentary)
	}
	cond = mustParse(t, "exists(audio, not_commentary == false)")
	ex = cond.(*Exists)
	if ex.Filters.Commentary == nil || !*ex.Filters.Commentary {
		t.Errorf("not_commentary == false should select commentary tracks, got %+v", ex.Filters.Commentary)
	}
}

func TestParseConfidenceAlias(t *testing.T) {
	cond := mustParse(t, "is_original(confidence == 0.9)")
	orig := cond.(*IsOriginal)
	if orig.MinConfidence != 0.9 {
		t.Errorf("confidence alias not applied, got %v", orig.MinConfidence)
	}
}

func TestParseClassificationDefaults(t *testing.T) {
	cond := mustParse(t, "is_original()")
	orig := cond.(*IsOriginal)
	if !orig.Value || orig.MinConfidence != DefaultMinConfidence {
		t.Errorf("is_original defaults = %+v", orig)
	}
	cond = mustParse(t, "is_dubbed(value == false, min_confidence == 0.9, lang == jpn)")
	dub := cond.(*IsDubbed)
	if dub.Value || dub.MinConfidence != 0.9 || dub.Language != "jpn" {
		t.Errorf("is_dubbed = %+v", dub)
	}
}

func TestParseDepthLimit(t *testing.T) {
	source := strings.Repeat("(", 60) + "exists(video)" + strings.Repeat(")", 60)
	if _, err := Parse(source); err == nil {
		t.Fatal("expected error for excessive nesting")
	}
	source = strings.Repeat("(", 40) + "exists(video)" + strings.Repeat(")", 40)
	if _, err := Parse(source); err != nil {
		t.Fatalf("nesting within limit should parse, got %v", err)
	}
}

func TestParseErrorsMatchValidationSentinel(t *testing.T) {
	_, err := Parse("exists(")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("parse errors should match services.ErrValidation, got %v", err)
	}
}

func TestParseTrailingInput(t *testing.T) {
	if _, err := Parse("exists(video) exists(audio)"); err == nil {
		t.Fatal("expected error for trailing input")
	}
}

func TestParseUnknownFunction(t *testing.T) {
	_, err := Parse("frobnicate(audio)")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}
