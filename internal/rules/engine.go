package rules

import (
	"path/filepath"
	"strings"

	"medley/internal/expr"
)

// Rule pairs a named condition with its consequences. Rules are compiled
// once per policy load and shared read-only across workers.
type Rule struct {
	Name string
	When expr.Condition
	Then []Action
	Else []Action
}

// FlagChange records a forced/default disposition edit for one track.
type FlagChange struct {
	TrackIndex int
	Field      string // "forced" or "default"
	Value      bool
}

// LanguageChange retags one track's language.
type LanguageChange struct {
	TrackIndex int
	Language   string
}

// MetadataChange writes one container-level tag.
type MetadataChange struct {
	Field string
	Value string
}

// RuleTrace records one rule's evaluation for dry-run introspection.
type RuleTrace struct {
	Rule           string
	Evaluated      bool
	Matched        bool
	Branch         string
	ConditionTrace string
}

// Result accumulates the consequences of running the rule list against one
// file.
type Result struct {
	MatchedRule      string
	MatchedBranch    string
	Warnings         []string
	Failed           bool
	FailureMessage   string
	SkipFlags        map[SkipFlag]bool
	FlagChanges      []FlagChange
	LanguageChanges  []LanguageChange
	ContainerChanges []MetadataChange
	Trace            []RuleTrace
}

// Skipped reports whether the named flag was raised.
func (r *Result) Skipped(flag SkipFlag) bool {
	return r.SkipFlags[flag] || r.SkipFlags[SkipAll]
}

// Run evaluates the ordered rule list first-match-wins: the first rule whose
// condition holds executes its then-branch and evaluation stops. When no
// rule matches, only the final rule's else-branch (if any) runs. Every
// evaluation is recorded in the trace.
func Run(ruleList []Rule, ctx *Context) *Result {
	result := &Result{SkipFlags: map[SkipFlag]bool{}}

	matched := -1
	for i, rule := range ruleList {
		if matched >= 0 {
			result.Trace = append(result.Trace, RuleTrace{
				Rule:           rule.Name,
				ConditionTrace: "not evaluated (earlier rule matched)",
			})
			continue
		}
		ok, trace := Evaluate(rule.When, ctx)
		entry := RuleTrace{Rule: rule.Name, Evaluated: true, Matched: ok, ConditionTrace: trace}
		if ok {
			matched = i
			entry.Branch = "then"
			result.MatchedRule = rule.Name
			result.MatchedBranch = "then"
			executeActions(rule.Then, rule.Name, ctx, result)
		}
		result.Trace = append(result.Trace, entry)
	}

	if matched < 0 && len(ruleList) > 0 {
		last := ruleList[len(ruleList)-1]
		if len(last.Else) > 0 {
			result.MatchedRule = last.Name
			result.MatchedBranch = "else"
			result.Trace[len(result.Trace)-1].Branch = "else"
			executeActions(last.Else, last.Name, ctx, result)
		}
	}

	return result
}

func executeActions(actions []Action, ruleName string, ctx *Context, result *Result) {
	for _, action := range actions {
		switch a := action.(type) {
		case Skip:
			result.SkipFlags[a.Flag] = true
		case Warn:
			result.Warnings = append(result.Warnings, renderTemplate(a.Message, ruleName, ctx))
		case Fail:
			result.Failed = true
			result.FailureMessage = renderTemplate(a.Message, ruleName, ctx)
		case SetForced:
			for _, track := range ctx.Container.Tracks {
				if a.Selector.Matches(track) {
					result.FlagChanges = append(result.FlagChanges, FlagChange{
						TrackIndex: track.Index,
						Field:      "forced",
						Value:      a.Value,
					})
				}
			}
		case SetDefault:
			for _, track := range ctx.Container.Tracks {
				if !a.Selector.Matches(track) {
					continue
				}
				result.FlagChanges = append(result.FlagChanges, FlagChange{
					TrackIndex: track.Index,
					Field:      "default",
					Value:      a.Value,
				})
				// Only one track per type may become default.
				if a.Value {
					break
				}
			}
		case SetLanguage:
			value, ok := a.Value.Resolve(ctx)
			if !ok {
				continue
			}
			for _, track := range ctx.Container.Tracks {
				if a.Selector.Matches(track) {
					result.LanguageChanges = append(result.LanguageChanges, LanguageChange{
						TrackIndex: track.Index,
						Language:   value,
					})
				}
			}
		case SetContainerMetadata:
			value, ok := a.Value.Resolve(ctx)
			if !ok {
				continue
			}
			result.ContainerChanges = append(result.ContainerChanges, MetadataChange{
				Field: a.Field,
				Value: value,
			})
		}
	}
}

// renderTemplate substitutes {filename}, {path}, and {rule_name}
// placeholders in warn/fail messages.
func renderTemplate(message, ruleName string, ctx *Context) string {
	replacer := strings.NewReplacer(
		"{filename}", filepath.Base(ctx.Container.Path),
		"{path}", ctx.Container.Path,
		"{rule_name}", ruleName,
	)
	return replacer.Replace(message)
}
