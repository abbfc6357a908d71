package rules

import (
	"fmt"
	"strconv"
	"strings"

	"medley/internal/expr"
	"medley/internal/language"
	"medley/internal/media"
)

// Evaluate resolves a condition against the per-file context. It is a total
// function: every outcome is a boolean plus a human-readable trace, never an
// error. Absent metadata, missing plugins, and non-numeric values all
// degrade to false with an explanatory trace.
func Evaluate(cond expr.Condition, ctx *Context) (bool, string) {
	switch c := cond.(type) {
	case *expr.And:
		return evaluateAnd(c, ctx)
	case *expr.Or:
		return evaluateOr(c, ctx)
	case *expr.Not:
		result, trace := Evaluate(c.Child, ctx)
		return !result, fmt.Sprintf("not (%s)", trace)
	case *expr.Exists:
		return evaluateExists(c, ctx)
	case *expr.Count:
		return evaluateCount(c, ctx)
	case *expr.MultiLanguage:
		return evaluateMultiLanguage(c, ctx)
	case *expr.PluginMetadata:
		return evaluatePluginMetadata(c, ctx)
	case *expr.ContainerMetadata:
		return evaluateContainerMetadata(c, ctx)
	case *expr.IsOriginal:
		return evaluateIsOriginal(c, ctx)
	case *expr.IsDubbed:
		return evaluateIsDubbed(c, ctx)
	default:
		return false, fmt.Sprintf("unknown condition %T → false", cond)
	}
}

func evaluateAnd(c *expr.And, ctx *Context) (bool, string) {
	var traces []string
	for _, child := range c.Children {
		result, trace := Evaluate(child, ctx)
		traces = append(traces, trace)
		if !result {
			return false, strings.Join(traces, " and ")
		}
	}
	return true, strings.Join(traces, " and ")
}

func evaluateOr(c *expr.Or, ctx *Context) (bool, string) {
	var traces []string
	for _, child := range c.Children {
		result, trace := Evaluate(child, ctx)
		traces = append(traces, trace)
		if result {
			return true, strings.Join(traces, " or ")
		}
	}
	return false, strings.Join(traces, " or ")
}

func evaluateExists(c *expr.Exists, ctx *Context) (bool, string) {
	matches := matchingTracks(ctx, c.TrackType, c.Filters)
	source := expr.Serialize(c)
	if len(matches) > 0 {
		return true, fmt.Sprintf("%s → true (%d matching track(s))", source, len(matches))
	}
	return false, fmt.Sprintf("%s → false (no matching tracks)", source)
}

func evaluateCount(c *expr.Count, ctx *Context) (bool, string) {
	matches := matchingTracks(ctx, c.TrackType, c.Filters)
	result := compareInts(c.Op, len(matches), c.Value)
	return result, fmt.Sprintf("%s → %t (count is %d)", expr.Serialize(c), result, len(matches))
}

// matchingTracks filters the container's tracks by type and filter set.
func matchingTracks(ctx *Context, trackType string, filters expr.TrackFilters) []media.Track {
	var matches []media.Track
	for _, track := range ctx.Container.Tracks {
		if string(track.Type) != trackType {
			continue
		}
		if trackMatchesFilters(ctx, track, filters) {
			matches = append(matches, track)
		}
	}
	return matches
}

func trackMatchesFilters(ctx *Context, track media.Track, filters expr.TrackFilters) bool {
	if len(filters.Languages) > 0 && !language.MatchesAny(track.Language, filters.Languages) {
		return false
	}
	if len(filters.Codecs) > 0 && !codecMatchesAny(track.Codec, filters.Codecs) {
		return false
	}
	if f := filters.Channels; f != nil && !compareInts(f.Op, track.Channels, f.Value) {
		return false
	}
	if f := filters.Height; f != nil && !compareInts(f.Op, track.Height, f.Value) {
		return false
	}
	if f := filters.Width; f != nil && !compareInts(f.Op, track.Width, f.Value) {
		return false
	}
	if filters.Default != nil && track.Default != *filters.Default {
		return false
	}
	if filters.Forced != nil && track.Forced != *filters.Forced {
		return false
	}
	if filters.Commentary != nil && ctx.IsCommentaryTrack(track) != *filters.Commentary {
		return false
	}
	if filters.Title != "" && !strings.Contains(strings.ToLower(track.Title), strings.ToLower(filters.Title)) {
		return false
	}
	return true
}

func codecMatchesAny(codec string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(strings.TrimSpace(codec), strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

func compareInts(op expr.CompareOp, a, b int) bool {
	switch op {
	case expr.OpEq:
		return a == b
	case expr.OpNe:
		return a != b
	case expr.OpLt:
		return a < b
	case expr.OpLe:
		return a <= b
	case expr.OpGt:
		return a > b
	case expr.OpGe:
		return a >= b
	default:
		return false
	}
}

func evaluateMultiLanguage(c *expr.MultiLanguage, ctx *Context) (bool, string) {
	source := expr.Serialize(c)
	if ctx.Classification == nil || len(ctx.Classification.Tracks) == 0 {
		return false, source + " → false (no classification results)"
	}

	indices := classifiedAudioIndices(ctx, c.TrackIndex)
	if len(indices) == 0 {
		return false, source + " → false (track not in classification results)"
	}

	for _, idx := range indices {
		tc := ctx.Classification.Tracks[idx]
		primary := c.PrimaryLanguage
		if primary == "" {
			primary = tc.DetectedLanguage
		}
		secondary := secondaryShare(tc.LanguageShares, primary)
		if secondary >= c.Threshold {
			return true, fmt.Sprintf("%s → true (track %d has %.2f non-%s dialogue)", source, idx, secondary, language.Normalize(primary))
		}
	}
	return false, source + " → false (no track exceeds threshold)"
}

func classifiedAudioIndices(ctx *Context, only *int) []int {
	var out []int
	if only != nil {
		if _, ok := ctx.Classification.Tracks[*only]; ok {
			out = append(out, *only)
		}
		return out
	}
	for _, track := range ctx.Container.Tracks {
		if track.Type != media.TrackAudio {
			continue
		}
		if _, ok := ctx.Classification.Tracks[track.Index]; ok {
			out = append(out, track.Index)
		}
	}
	return out
}

func secondaryShare(shares map[string]float64, primary string) float64 {
	total := 0.0
	for lang, share := range shares {
		if language.Matches(lang, primary) {
			continue
		}
		total += share
	}
	return total
}

func evaluatePluginMetadata(c *expr.PluginMetadata, ctx *Context) (bool, string) {
	source := expr.Serialize(c)
	fields, ok := ctx.Plugins[c.Plugin]
	if !ok {
		return false, fmt.Sprintf("%s → false (plugin %q not in metadata)", source, c.Plugin)
	}
	value, ok := fields[c.Field]
	if !ok {
		return false, fmt.Sprintf("%s → false (field %q not in metadata)", source, c.Field)
	}
	if value == nil {
		return false, fmt.Sprintf("%s → false (field value is null)", source)
	}
	if c.Op == "" {
		return true, fmt.Sprintf("%s → true (field present)", source)
	}
	return compareLiteral(source, c.Op, value, c.Value)
}

func evaluateContainerMetadata(c *expr.ContainerMetadata, ctx *Context) (bool, string) {
	source := expr.Serialize(c)

	// filesize is a synthetic field backed by the container stat.
	if strings.EqualFold(c.Field, "filesize") {
		if c.Op == "" {
			return true, fmt.Sprintf("%s → true (size is %d bytes)", source, ctx.Container.Size)
		}
		return compareLiteral(source, c.Op, ctx.Container.Size, c.Value)
	}

	value, ok := ctx.Container.Tag(c.Field)
	if !ok {
		return false, fmt.Sprintf("%s → false (tag %q not in metadata)", source, c.Field)
	}
	if c.Op == "" {
		return true, fmt.Sprintf("%s → true (tag present)", source)
	}
	return compareLiteral(source, c.Op, value, c.Value)
}

// compareLiteral compares a metadata value of unknown dynamic type against a
// parsed literal. String comparisons are case-insensitive; ordering
// operators coerce both sides to numbers and report "is not numeric" on
// failure instead of erroring.
func compareLiteral(source string, op expr.CompareOp, value any, lit *expr.Literal) (bool, string) {
	if lit == nil {
		return false, source + " → false (no comparison value)"
	}

	switch lit.Kind {
	case expr.LiteralBool:
		b, ok := coerceBool(value)
		if !ok {
			return false, fmt.Sprintf("%s → false (value %v is not boolean)", source, value)
		}
		result := b == lit.Bool
		if op == expr.OpNe {
			result = !result
		}
		return result, fmt.Sprintf("%s → %t (value is %t)", source, result, b)
	case expr.LiteralNumber, expr.LiteralSize:
		want := lit.Num
		if lit.Kind == expr.LiteralSize {
			want = float64(lit.Bytes)
		}
		got, ok := coerceFloat(value)
		if !ok {
			return false, fmt.Sprintf("%s → false (value %q is not numeric)", source, fmt.Sprint(value))
		}
		result := compareFloats(op, got, want)
		return result, fmt.Sprintf("%s → %t (value is %v)", source, result, got)
	default:
		got := fmt.Sprint(value)
		switch op {
		case expr.OpEq:
			result := strings.EqualFold(got, lit.Str)
			return result, fmt.Sprintf("%s → %t (value is %q)", source, result, got)
		case expr.OpNe:
			result := !strings.EqualFold(got, lit.Str)
			return result, fmt.Sprintf("%s → %t (value is %q)", source, result, got)
		default:
			// Ordering against a string literal falls back to numeric
			// coercion of both sides.
			gotNum, okGot := coerceFloat(value)
			wantNum, okWant := coerceFloat(lit.Str)
			if !okGot || !okWant {
				return false, fmt.Sprintf("%s → false (value %q is not numeric)", source, got)
			}
			result := compareFloats(op, gotNum, wantNum)
			return result, fmt.Sprintf("%s → %t (value is %v)", source, result, gotNum)
		}
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func compareFloats(op expr.CompareOp, a, b float64) bool {
	switch op {
	case expr.OpEq:
		return a == b
	case expr.OpNe:
		return a != b
	case expr.OpLt:
		return a < b
	case expr.OpLe:
		return a <= b
	case expr.OpGt:
		return a > b
	case expr.OpGe:
		return a >= b
	default:
		return false
	}
}

func evaluateIsOriginal(c *expr.IsOriginal, ctx *Context) (bool, string) {
	source := expr.Serialize(c)
	if ctx.Classification == nil || ctx.Classification.OriginalLanguage == "" {
		return false, source + " → false (original language not in metadata)"
	}
	original := ctx.Classification.OriginalLanguage

	for _, track := range ctx.Container.Tracks {
		if track.Type != media.TrackAudio {
			continue
		}
		if c.Language != "" && !track.LanguageMatches(c.Language) {
			continue
		}
		tc, ok := ctx.TrackClassificationFor(track.Index)
		if !ok || tc.Confidence < c.MinConfidence {
			continue
		}
		isOriginal := language.Matches(tc.DetectedLanguage, original)
		if isOriginal == c.Value {
			return true, fmt.Sprintf("%s → true (track %d detected %s, original %s)", source, track.Index, tc.DetectedLanguage, original)
		}
	}
	return false, source + " → false (no track meets classification)"
}

func evaluateIsDubbed(c *expr.IsDubbed, ctx *Context) (bool, string) {
	source := expr.Serialize(c)
	if ctx.Classification == nil || len(ctx.Classification.Tracks) == 0 {
		return false, source + " → false (no classification results)"
	}
	for _, track := range ctx.Container.Tracks {
		if track.Type != media.TrackAudio {
			continue
		}
		if c.Language != "" && !track.LanguageMatches(c.Language) {
			continue
		}
		tc, ok := ctx.TrackClassificationFor(track.Index)
		if !ok || tc.DubbedConfidence < c.MinConfidence {
			continue
		}
		if tc.Dubbed == c.Value {
			return true, fmt.Sprintf("%s → true (track %d dubbed=%t at %.2f)", source, track.Index, tc.Dubbed, tc.DubbedConfidence)
		}
	}
	return false, source + " → false (no track meets classification)"
}
