package phase

import (
	"fmt"
	"strings"

	"medley/internal/expr"
	"medley/internal/media"
	"medley/internal/rules"
)

// CheckMode combines multiple skip checks.
type CheckMode string

const (
	// ModeAny skips when at least one check holds.
	ModeAny CheckMode = "any"
	// ModeAll skips only when every check holds.
	ModeAll CheckMode = "all"
)

// Check is one skip_when predicate evaluated against the file context.
type Check interface {
	check()
	Evaluate(ctx *rules.Context) (bool, string)
}

// ExpressionCheck evaluates a compiled policy expression.
type ExpressionCheck struct {
	Condition expr.Condition
}

func (ExpressionCheck) check() {}

func (c ExpressionCheck) Evaluate(ctx *rules.Context) (bool, string) {
	return rules.Evaluate(c.Condition, ctx)
}

// FileSmallerThan holds when the container is below a byte threshold.
type FileSmallerThan struct {
	Bytes int64
}

func (FileSmallerThan) check() {}

func (c FileSmallerThan) Evaluate(ctx *rules.Context) (bool, string) {
	size := ctx.Container.Size
	if size < c.Bytes {
		return true, fmt.Sprintf("file size %d < %d", size, c.Bytes)
	}
	return false, fmt.Sprintf("file size %d >= %d", size, c.Bytes)
}

// ContainerIs holds when the container format matches, alias-normalized.
type ContainerIs struct {
	Format string
}

func (ContainerIs) check() {}

func (c ContainerIs) Evaluate(ctx *rules.Context) (bool, string) {
	have := media.NormalizeFormat(ctx.Container.Format)
	want := media.NormalizeFormat(c.Format)
	if have == want {
		return true, fmt.Sprintf("container is %s", have)
	}
	return false, fmt.Sprintf("container is %s, not %s", have, want)
}

// HasTrack holds when a track matching the optional type/language/codec
// constraints exists.
type HasTrack struct {
	Type     media.TrackType
	Language string
	Codec    string
}

func (HasTrack) check() {}

func (c HasTrack) Evaluate(ctx *rules.Context) (bool, string) {
	for _, track := range ctx.Container.Tracks {
		if c.Type != "" && track.Type != c.Type {
			continue
		}
		if c.Language != "" && !track.LanguageMatches(c.Language) {
			continue
		}
		if c.Codec != "" && !strings.EqualFold(track.Codec, c.Codec) {
			continue
		}
		return true, fmt.Sprintf("track %d matches", track.Index)
	}
	return false, "no matching track"
}

// SkipWhen is a phase's skip condition: a set of checks combined by mode.
type SkipWhen struct {
	Mode   CheckMode
	Checks []Check
}

// Evaluate reports whether the phase should be skipped, with a trace of the
// deciding checks.
func (s *SkipWhen) Evaluate(ctx *rules.Context) (bool, string) {
	if s == nil || len(s.Checks) == 0 {
		return false, ""
	}
	mode := s.Mode
	if mode == "" {
		mode = ModeAny
	}

	var traces []string
	matched := 0
	for _, check := range s.Checks {
		ok, trace := check.Evaluate(ctx)
		if ok {
			matched++
		}
		traces = append(traces, trace)
		if mode == ModeAny && ok {
			return true, trace
		}
		if mode == ModeAll && !ok {
			return false, trace
		}
	}
	joined := strings.Join(traces, "; ")
	if mode == ModeAll {
		return matched == len(s.Checks), joined
	}
	return false, joined
}
