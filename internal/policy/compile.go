package policy

import (
	"fmt"
	"strconv"
	"strings"

	"medley/internal/expr"
	"medley/internal/media"
	"medley/internal/phase"
	"medley/internal/plan"
	"medley/internal/rules"
	"medley/internal/services"
	"medley/internal/synth"
)

// Policy is a fully compiled policy document. Compiled policies are
// read-only and safe to share across workers.
type Policy struct {
	Version int
	Name    string
	// Fingerprint is a short content hash of the source document, recorded
	// on every plan for the audit log.
	Fingerprint string
	Source      string

	Order      plan.OrderConfig
	Filters    plan.FiltersConfig
	Conversion plan.ConversionConfig
	Rules      []rules.Rule
	Synthesis  []synth.Target
	Phases     []PhaseSpec
}

// PhaseSpec is a phase declaration before a body is attached.
type PhaseSpec struct {
	Name      string
	DependsOn []string
	RunIf     []string
	SkipWhen  *phase.SkipWhen
	OnError   phase.ErrorMode
}

// PlannerConfig bundles the planner-facing sections.
func (p *Policy) PlannerConfig() plan.Config {
	return plan.Config{Order: p.Order, Filters: p.Filters, Conversion: p.Conversion}
}

// VersionLabel identifies the policy revision in plans and audit records.
func (p *Policy) VersionLabel() string {
	name := p.Name
	if name == "" {
		name = "policy"
	}
	return fmt.Sprintf("%s/v%d@%s", name, p.Version, p.Fingerprint)
}

func compile(doc *document, source, fingerprint string) (*Policy, error) {
	if doc.Version != 1 {
		return nil, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("unsupported schema version %d (want 1)", doc.Version), nil)
	}

	p := &Policy{
		Version:     doc.Version,
		Name:        doc.Name,
		Fingerprint: fingerprint,
		Source:      source,
	}

	if doc.TrackOrder != nil {
		order, err := compileOrder(doc.TrackOrder)
		if err != nil {
			return nil, err
		}
		p.Order = order
	}
	if doc.TrackFilters != nil {
		p.Filters = compileFilters(doc.TrackFilters)
	}

	for i, rd := range doc.Rules {
		rule, err := compileRule(rd, i)
		if err != nil {
			return nil, err
		}
		p.Rules = append(p.Rules, rule)
	}

	for i, sd := range doc.Synthesis {
		target, err := compileSynthesis(sd, i)
		if err != nil {
			return nil, err
		}
		p.Synthesis = append(p.Synthesis, target)
	}

	if doc.Container != nil {
		p.Conversion = compileConversion(doc.Container)
	}

	phases, err := compilePhases(doc.Phases)
	if err != nil {
		return nil, err
	}
	p.Phases = phases

	return p, nil
}

func compileOrder(doc *trackOrderDoc) (plan.OrderConfig, error) {
	cfg := plan.OrderConfig{Languages: doc.Languages}
	for _, name := range doc.Types {
		tt, ok := trackType(name)
		if !ok {
			return cfg, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("track_order: unknown track type %q", name), nil)
		}
		cfg.Types = append(cfg.Types, tt)
	}
	return cfg, nil
}

func compileFilters(doc *trackFilterDoc) plan.FiltersConfig {
	var cfg plan.FiltersConfig
	if doc.Audio != nil {
		cfg.Audio = plan.TypeFilter{
			KeepLanguages:    doc.Audio.KeepLanguages,
			RemoveAll:        doc.Audio.RemoveAll,
			RemoveCommentary: doc.Audio.RemoveCommentary,
		}
	}
	if doc.Subtitle != nil {
		cfg.Subtitle = plan.TypeFilter{
			KeepLanguages:  doc.Subtitle.KeepLanguages,
			RemoveAll:      doc.Subtitle.RemoveAll,
			PreserveForced: doc.Subtitle.PreserveForced,
		}
	}
	if doc.Attachment != nil {
		cfg.Attachment = plan.AttachmentFilter{KeepAll: doc.Attachment.KeepAll}
	}
	return cfg
}

func compileRule(doc ruleDoc, index int) (rules.Rule, error) {
	label := doc.Name
	if label == "" {
		label = fmt.Sprintf("rule %d", index+1)
	}
	if doc.Name == "" {
		return rules.Rule{}, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("%s: name is required", label), nil)
	}
	if strings.TrimSpace(doc.When) == "" {
		return rules.Rule{}, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("rule %q: when expression is required", doc.Name), nil)
	}

	when, err := expr.Parse(doc.When)
	if err != nil {
		return rules.Rule{}, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("rule %q", doc.Name), err)
	}

	then, err := compileActions(doc.Then, doc.Name, "then")
	if err != nil {
		return rules.Rule{}, err
	}
	elseActions, err := compileActions(doc.Else, doc.Name, "else")
	if err != nil {
		return rules.Rule{}, err
	}

	return rules.Rule{Name: doc.Name, When: when, Then: then, Else: elseActions}, nil
}

func compileActions(docs []actionDoc, rule, branch string) ([]rules.Action, error) {
	var actions []rules.Action
	for i, doc := range docs {
		action, err := compileAction(doc)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("rule %q %s action %d", rule, branch, i+1), err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func compileAction(doc actionDoc) (rules.Action, error) {
	set := 0
	if doc.Skip != "" {
		set++
	}
	if doc.Warn != "" {
		set++
	}
	if doc.Fail != "" {
		set++
	}
	if doc.SetForced != nil {
		set++
	}
	if doc.SetDefault != nil {
		set++
	}
	if doc.SetLanguage != nil {
		set++
	}
	if doc.SetContainerMetadata != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one action key required, got %d", set)
	}

	switch {
	case doc.Skip != "":
		flag := rules.SkipFlag(doc.Skip)
		if !rules.KnownSkipFlags[flag] {
			return nil, fmt.Errorf("unknown skip flag %q", doc.Skip)
		}
		return rules.Skip{Flag: flag}, nil
	case doc.Warn != "":
		return rules.Warn{Message: doc.Warn}, nil
	case doc.Fail != "":
		return rules.Fail{Message: doc.Fail}, nil
	case doc.SetForced != nil:
		selector, err := compileSelector(doc.SetForced.Type, doc.SetForced.Language)
		if err != nil {
			return nil, err
		}
		if doc.SetForced.Value == nil {
			return nil, fmt.Errorf("set_forced: value is required")
		}
		return rules.SetForced{Selector: selector, Value: *doc.SetForced.Value}, nil
	case doc.SetDefault != nil:
		selector, err := compileSelector(doc.SetDefault.Type, doc.SetDefault.Language)
		if err != nil {
			return nil, err
		}
		if doc.SetDefault.Value == nil {
			return nil, fmt.Errorf("set_default: value is required")
		}
		return rules.SetDefault{Selector: selector, Value: *doc.SetDefault.Value}, nil
	case doc.SetLanguage != nil:
		selector, err := compileSelector(doc.SetLanguage.Type, doc.SetLanguage.Language)
		if err != nil {
			return nil, err
		}
		ref, err := compileValueRef(doc.SetLanguage.Value, doc.SetLanguage.FromPlugin)
		if err != nil {
			return nil, fmt.Errorf("set_language: %w", err)
		}
		return rules.SetLanguage{Selector: selector, Value: ref}, nil
	default:
		if doc.SetContainerMetadata.Field == "" {
			return nil, fmt.Errorf("set_container_metadata: field is required")
		}
		ref, err := compileValueRef(doc.SetContainerMetadata.Value, doc.SetContainerMetadata.FromPlugin)
		if err != nil {
			return nil, fmt.Errorf("set_container_metadata: %w", err)
		}
		return rules.SetContainerMetadata{Field: doc.SetContainerMetadata.Field, Value: ref}, nil
	}
}

func compileSelector(typeName, lang string) (rules.TrackSelector, error) {
	selector := rules.TrackSelector{Language: lang}
	if typeName != "" {
		tt, ok := trackType(typeName)
		if !ok {
			return selector, fmt.Errorf("unknown track type %q", typeName)
		}
		selector.Type = tt
	}
	return selector, nil
}

// compileValueRef builds a static value or a "plugin.field" reference.
// Exactly one of value/from_plugin must be set.
func compileValueRef(value, fromPlugin string) (rules.ValueRef, error) {
	if (value == "") == (fromPlugin == "") {
		return rules.ValueRef{}, fmt.Errorf("exactly one of value or from_plugin required")
	}
	if value != "" {
		return rules.ValueRef{Static: value}, nil
	}
	plugin, field, ok := strings.Cut(fromPlugin, ".")
	if !ok || plugin == "" || field == "" {
		return rules.ValueRef{}, fmt.Errorf("from_plugin %q must be \"plugin.field\"", fromPlugin)
	}
	return rules.ValueRef{Plugin: plugin, Field: field}, nil
}

func compileSynthesis(doc synthesisDoc, index int) (synth.Target, error) {
	label := fmt.Sprintf("synthesis target %d", index+1)
	target := synth.Target{
		Codec:        strings.ToLower(doc.Codec),
		Channels:     doc.Channels,
		Language:     doc.Language,
		Title:        doc.Title,
		Bitrate:      doc.Bitrate,
		SkipIfExists: doc.SkipIfExists,
	}
	if target.Codec == "" {
		return target, services.Wrap(services.ErrValidation, "policy", "compile",
			label+": codec is required", nil)
	}
	if _, ok := synth.EncoderFor(target.Codec); !ok {
		return target, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("%s: no encoder known for codec %q", label, target.Codec), nil)
	}
	if target.Channels <= 0 {
		return target, services.Wrap(services.ErrValidation, "policy", "compile",
			label+": channels must be positive", nil)
	}

	for i, cd := range doc.Prefer {
		criterion, err := compileCriterion(cd)
		if err != nil {
			return target, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("%s prefer %d", label, i+1), err)
		}
		target.Prefer = append(target.Prefer, criterion)
	}

	if strings.TrimSpace(doc.When) != "" {
		when, err := expr.Parse(doc.When)
		if err != nil {
			return target, services.Wrap(services.ErrValidation, "policy", "compile", label, err)
		}
		target.When = when
	}
	return target, nil
}

func compileCriterion(doc criterionDoc) (synth.Criterion, error) {
	set := 0
	if doc.Language != "" {
		set++
	}
	if doc.Commentary != nil {
		set++
	}
	if doc.Codec != "" {
		set++
	}
	if doc.Channels != "" {
		set++
	}
	if set != 1 {
		return synth.Criterion{}, fmt.Errorf("exactly one preference key required, got %d", set)
	}

	switch {
	case doc.Language != "":
		return synth.Criterion{Kind: synth.CriterionLanguage, Language: doc.Language}, nil
	case doc.Commentary != nil:
		return synth.Criterion{Kind: synth.CriterionCommentary, Commentary: *doc.Commentary}, nil
	case doc.Codec != "":
		return synth.Criterion{Kind: synth.CriterionCodec, Codec: doc.Codec}, nil
	default:
		switch doc.Channels {
		case "max":
			return synth.Criterion{Kind: synth.CriterionChannels, ChannelMode: synth.ChannelsMax}, nil
		case "min":
			return synth.Criterion{Kind: synth.CriterionChannels, ChannelMode: synth.ChannelsMin}, nil
		default:
			count, err := strconv.Atoi(doc.Channels)
			if err != nil || count <= 0 {
				return synth.Criterion{}, fmt.Errorf("channels must be max, min, or a positive count, got %q", doc.Channels)
			}
			return synth.Criterion{Kind: synth.CriterionChannels, ChannelMode: synth.ChannelsExact, ChannelCount: count}, nil
		}
	}
}

func compileConversion(doc *containerDoc) plan.ConversionConfig {
	cfg := plan.ConversionConfig{TargetFormat: doc.TargetFormat}
	if len(doc.CodecMappings) > 0 {
		cfg.CodecMappings = make(map[string]plan.CodecMapping, len(doc.CodecMappings))
		for codec, mapping := range doc.CodecMappings {
			cfg.CodecMappings[codec] = plan.CodecMapping{
				Action:  mapping.Action,
				Codec:   mapping.Codec,
				Bitrate: mapping.Bitrate,
			}
		}
	}
	return cfg
}

func compilePhases(docs []phaseDoc) ([]PhaseSpec, error) {
	seen := map[string]bool{}
	var specs []PhaseSpec
	for i, doc := range docs {
		if doc.Name == "" {
			return nil, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("phase %d: name is required", i+1), nil)
		}
		if seen[doc.Name] {
			return nil, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("duplicate phase name %q", doc.Name), nil)
		}

		spec := PhaseSpec{Name: doc.Name, DependsOn: doc.DependsOn, RunIf: doc.RunIf}
		for _, refs := range [][]string{doc.DependsOn, doc.RunIf} {
			for _, ref := range refs {
				if !seen[ref] {
					return nil, services.Wrap(services.ErrValidation, "policy", "compile",
						fmt.Sprintf("phase %q references %q, which is not an earlier phase", doc.Name, ref), nil)
				}
			}
		}

		switch doc.OnError {
		case "":
			spec.OnError = phase.ErrorModeFail
		case string(phase.ErrorModeFail), string(phase.ErrorModeContinue), string(phase.ErrorModeSkip):
			spec.OnError = phase.ErrorMode(doc.OnError)
		default:
			return nil, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("phase %q: on_error must be fail, skip, or continue, got %q", doc.Name, doc.OnError), nil)
		}

		if doc.SkipWhen != nil {
			sw, err := compileSkipWhen(doc.SkipWhen, doc.Name)
			if err != nil {
				return nil, err
			}
			spec.SkipWhen = sw
		}

		seen[doc.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

func compileSkipWhen(doc *skipWhenDoc, phaseName string) (*phase.SkipWhen, error) {
	sw := &phase.SkipWhen{}
	switch doc.Mode {
	case "", string(phase.ModeAny):
		sw.Mode = phase.ModeAny
	case string(phase.ModeAll):
		sw.Mode = phase.ModeAll
	default:
		return nil, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("phase %q: skip_when mode must be any or all, got %q", phaseName, doc.Mode), nil)
	}

	for i, cd := range doc.Checks {
		check, err := compileCheck(cd)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "policy", "compile",
				fmt.Sprintf("phase %q skip_when check %d", phaseName, i+1), err)
		}
		sw.Checks = append(sw.Checks, check)
	}
	if len(sw.Checks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "policy", "compile",
			fmt.Sprintf("phase %q: skip_when requires at least one check", phaseName), nil)
	}
	return sw, nil
}

func compileCheck(doc checkDoc) (phase.Check, error) {
	set := 0
	if doc.Expression != "" {
		set++
	}
	if doc.FileSmallerThan != "" {
		set++
	}
	if doc.ContainerIs != "" {
		set++
	}
	if doc.HasTrack != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one check key required, got %d", set)
	}

	switch {
	case doc.Expression != "":
		cond, err := expr.Parse(doc.Expression)
		if err != nil {
			return nil, err
		}
		return phase.ExpressionCheck{Condition: cond}, nil
	case doc.FileSmallerThan != "":
		bytes, err := parseByteSize(doc.FileSmallerThan)
		if err != nil {
			return nil, err
		}
		return phase.FileSmallerThan{Bytes: bytes}, nil
	case doc.ContainerIs != "":
		return phase.ContainerIs{Format: doc.ContainerIs}, nil
	default:
		check := phase.HasTrack{Language: doc.HasTrack.Language, Codec: doc.HasTrack.Codec}
		if doc.HasTrack.Type != "" {
			tt, ok := trackType(doc.HasTrack.Type)
			if !ok {
				return nil, fmt.Errorf("has_track: unknown track type %q", doc.HasTrack.Type)
			}
			check.Type = tt
		}
		if check.Type == "" && check.Language == "" && check.Codec == "" {
			return nil, fmt.Errorf("has_track requires at least one of type, language, codec")
		}
		return check, nil
	}
}

func trackType(name string) (media.TrackType, bool) {
	switch strings.ToLower(name) {
	case string(media.TrackVideo):
		return media.TrackVideo, true
	case string(media.TrackAudio):
		return media.TrackAudio, true
	case string(media.TrackSubtitle):
		return media.TrackSubtitle, true
	case string(media.TrackAttachment):
		return media.TrackAttachment, true
	default:
		return "", false
	}
}

// byteSuffixes uses decimal multipliers matching the expression language's
// size literals.
var byteSuffixes = map[string]int64{
	"kb": 1e3, "k": 1e3,
	"mb": 1e6, "m": 1e6,
	"gb": 1e9, "g": 1e9,
	"tb": 1e12, "t": 1e12,
}

func parseByteSize(text string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	cut := len(s)
	for cut > 0 && (s[cut-1] < '0' || s[cut-1] > '9') && s[cut-1] != '.' {
		cut--
	}
	num, suffix := s[:cut], s[cut:]
	multiplier := int64(1)
	if suffix != "" {
		m, ok := byteSuffixes[suffix]
		if !ok {
			return 0, fmt.Errorf("invalid size suffix %q in %q", suffix, text)
		}
		multiplier = m
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", text)
	}
	return int64(value * float64(multiplier)), nil
}
