package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator precedence levels, loosest binding first.
const (
	precOr = iota + 1
	precAnd
	precNot
	precAtom
)

// Serialize renders a Condition back to expression source. The output uses
// minimal parentheses and reparses to a structurally equal AST.
func Serialize(cond Condition) string {
	return serialize(cond)
}

func precedence(cond Condition) int {
	switch cond.(type) {
	case *Or:
		return precOr
	case *And:
		return precAnd
	case *Not:
		return precNot
	default:
		return precAtom
	}
}

func serialize(cond Condition) string {
	switch c := cond.(type) {
	case *Or:
		return serializeJoin(c.Children, " or ", precOr)
	case *And:
		return serializeJoin(c.Children, " and ", precAnd)
	case *Not:
		child := serialize(c.Child)
		if precedence(c.Child) < precNot {
			child = "(" + child + ")"
		}
		return "not " + child
	case *Exists:
		return "exists(" + serializeTrackArgs(c.TrackType, c.Filters) + ")"
	case *Count:
		return fmt.Sprintf("count(%s) %s %d", serializeTrackArgs(c.TrackType, c.Filters), c.Op, c.Value)
	case *MultiLanguage:
		return serializeMultiLanguage(c)
	case *PluginMetadata:
		out := fmt.Sprintf("plugin(%s, %s)", c.Plugin, maybeQuote(c.Field))
		if c.Op != "" && c.Value != nil {
			out += fmt.Sprintf(" %s %s", c.Op, serializeLiteral(c.Value))
		}
		return out
	case *ContainerMetadata:
		out := fmt.Sprintf("container_meta(%s)", maybeQuote(c.Field))
		if c.Op != "" && c.Value != nil {
			out += fmt.Sprintf(" %s %s", c.Op, serializeLiteral(c.Value))
		}
		return out
	case *IsOriginal:
		return "is_original(" + serializeClassificationArgs(c.Value, c.MinConfidence, c.Language) + ")"
	case *IsDubbed:
		return "is_dubbed(" + serializeClassificationArgs(c.Value, c.MinConfidence, c.Language) + ")"
	default:
		return ""
	}
}

func serializeJoin(children []Condition, sep string, level int) string {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		rendered := serialize(child)
		if precedence(child) < level {
			rendered = "(" + rendered + ")"
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, sep)
}

func serializeTrackArgs(trackType string, filters TrackFilters) string {
	parts := []string{trackType}
	switch len(filters.Languages) {
	case 0:
	case 1:
		parts = append(parts, "lang == "+maybeQuote(filters.Languages[0]))
	default:
		parts = append(parts, "lang in "+serializeValueList(filters.Languages))
	}
	switch len(filters.Codecs) {
	case 0:
	case 1:
		parts = append(parts, "codec == "+maybeQuote(filters.Codecs[0]))
	default:
		parts = append(parts, "codec in "+serializeValueList(filters.Codecs))
	}
	if f := filters.Channels; f != nil {
		parts = append(parts, fmt.Sprintf("channels %s %d", f.Op, f.Value))
	}
	if f := filters.Height; f != nil {
		parts = append(parts, fmt.Sprintf("height %s %d", f.Op, f.Value))
	}
	if f := filters.Width; f != nil {
		parts = append(parts, fmt.Sprintf("width %s %d", f.Op, f.Value))
	}
	if filters.Default != nil {
		parts = append(parts, "default == "+strconv.FormatBool(*filters.Default))
	}
	if filters.Forced != nil {
		parts = append(parts, "forced == "+strconv.FormatBool(*filters.Forced))
	}
	if filters.Commentary != nil {
		parts = append(parts, "commentary == "+strconv.FormatBool(*filters.Commentary))
	}
	if filters.Title != "" {
		parts = append(parts, "title == "+maybeQuote(filters.Title))
	}
	return strings.Join(parts, ", ")
}

func serializeValueList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = maybeQuote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func serializeMultiLanguage(c *MultiLanguage) string {
	var parts []string
	if c.Threshold != DefaultMultiLanguageThreshold {
		parts = append(parts, "threshold == "+formatFloat(c.Threshold))
	}
	if c.TrackIndex != nil {
		parts = append(parts, fmt.Sprintf("track == %d", *c.TrackIndex))
	}
	if c.PrimaryLanguage != "" {
		parts = append(parts, "primary_language == "+maybeQuote(c.PrimaryLanguage))
	}
	return "multi_language(" + strings.Join(parts, ", ") + ")"
}

func serializeClassificationArgs(value bool, minConfidence float64, language string) string {
	var parts []string
	if !value {
		parts = append(parts, "value == false")
	}
	if minConfidence != DefaultMinConfidence {
		parts = append(parts, "min_confidence == "+formatFloat(minConfidence))
	}
	if language != "" {
		parts = append(parts, "lang == "+maybeQuote(language))
	}
	return strings.Join(parts, ", ")
}

func serializeLiteral(lit *Literal) string {
	switch lit.Kind {
	case LiteralString:
		return maybeQuote(lit.Str)
	case LiteralNumber:
		return formatFloat(lit.Num)
	case LiteralSize:
		return formatFloat(lit.Num) + lit.Unit
	case LiteralBool:
		return strconv.FormatBool(lit.Bool)
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// maybeQuote emits a string bare when it would lex back as a single
// identifier, quoted otherwise.
func maybeQuote(s string) string {
	if isBareIdentifier(s) {
		return s
	}
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

func isBareIdentifier(s string) bool {
	if s == "" || keywords[s] {
		return false
	}
	if !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
