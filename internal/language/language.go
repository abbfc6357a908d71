package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Normalize converts any recognized language spelling (ISO 639-1, ISO 639-2
// including bibliographic variants, full words, BCP 47 tags like "en-US") to
// a canonical ISO 639-2 code. Returns "und" for empty or unrecognized input.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "und"
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	// Regioned or exotic tags go through BCP 47 parsing.
	if tag, err := xlang.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != xlang.No {
			iso3 := base.ISO3()
			if e := lookup(iso3); e != nil {
				return e.code3
			}
			if iso3 != "" {
				return iso3
			}
		}
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// Matches reports whether two language spellings denote the same language.
// Undetermined ("und", empty, unrecognized) never matches a policy value.
func Matches(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "und" || nb == "und" {
		return false
	}
	return na == nb
}

// MatchesAny reports whether lang matches at least one entry in wanted.
func MatchesAny(lang string, wanted []string) bool {
	for _, w := range wanted {
		if Matches(lang, w) {
			return true
		}
	}
	return false
}

// PreferenceIndex returns the position of lang within the preference list,
// or len(prefs) when absent, so unlisted languages sort below listed ones.
func PreferenceIndex(lang string, prefs []string) int {
	for i, pref := range prefs {
		if Matches(lang, pref) {
			return i
		}
	}
	return len(prefs)
}

// DisplayName returns a human-readable language name for any recognized
// code, or the uppercased input when unknown.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExtractFromTags extracts and normalizes the language from stream metadata
// tags. Checks common tag keys: language, LANGUAGE, Language, language_ietf,
// lang, LANG.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
