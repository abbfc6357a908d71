package worker

import (
	"context"
	"fmt"
	"log/slog"

	"medley/internal/audit"
	"medley/internal/executor"
	"medley/internal/logging"
	"medley/internal/phase"
	"medley/internal/plan"
	"medley/internal/policy"
	"medley/internal/rules"
	"medley/internal/services"
	"medley/internal/synth"
)

// PluginSource supplies the read-only plugin metadata mapping for one file
// before evaluation. Absent plugins are fine; conditions referencing them
// evaluate to false.
type PluginSource interface {
	Metadata(ctx context.Context, path string) (map[string]map[string]any, error)
}

// Pipeline runs the full policy over one file: introspection, rule
// evaluation, planning, and phased execution with audit records.
type Pipeline struct {
	Policy       *policy.Policy
	Analyzer     executor.Analyzer
	Registry     *executor.Registry
	Store        *audit.Store
	Capabilities *synth.Capabilities
	Plugins      PluginSource
	Options      executor.Options
	Logger       *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}

// Process implements Processor.
func (p *Pipeline) Process(ctx context.Context, path string) error {
	logger := p.logger().With(logging.String("file", path))

	job, err := p.buildJob(ctx, path)
	if err != nil {
		return err
	}

	scheduler := phase.NewScheduler(logger)
	phases := make([]phase.Phase, 0, len(p.Policy.Phases))
	for _, spec := range p.Policy.Phases {
		phases = append(phases, phase.Phase{
			Name:      spec.Name,
			DependsOn: spec.DependsOn,
			RunIf:     spec.RunIf,
			SkipWhen:  spec.SkipWhen,
			OnError:   spec.OnError,
			Body:      phase.BodyFunc(p.phaseBody(spec.Name)),
		})
	}

	result := scheduler.Run(ctx, job, phases)
	if !result.Success {
		return services.Wrap(services.ErrExternalTool, "worker", "process",
			fmt.Sprintf("%s: one or more phases failed", path), nil)
	}
	return nil
}

func (p *Pipeline) buildJob(ctx context.Context, path string) (*phase.Job, error) {
	introspect := func(ctx context.Context) (*rules.Context, error) {
		container, err := p.Analyzer.Analyze(ctx, path)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "worker", "analyze", path, err)
		}
		rctx := &rules.Context{Container: container}
		if p.Plugins != nil {
			metadata, err := p.Plugins.Metadata(ctx, path)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, "worker", "plugin metadata", path, err)
			}
			rctx.Plugins = metadata
		}
		return rctx, nil
	}

	rctx, err := introspect(ctx)
	if err != nil {
		return nil, err
	}
	return &phase.Job{Context: rctx, Refresh: introspect}, nil
}

// PlanFile evaluates the policy against one file and returns the plan
// without executing it. A nil plan with a non-nil result means a rule
// skipped the file entirely.
func (p *Pipeline) PlanFile(ctx context.Context, path string) (*plan.Plan, *rules.Result, error) {
	job, err := p.buildJob(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return p.buildPlan(job.Context)
}

func (p *Pipeline) buildPlan(rctx *rules.Context) (*plan.Plan, *rules.Result, error) {
	ruleResult := rules.Run(p.Policy.Rules, rctx)
	if ruleResult.Failed {
		return nil, ruleResult, services.Wrap(services.ErrValidation, "worker", "evaluate",
			ruleResult.FailureMessage, nil)
	}
	if ruleResult.Skipped(rules.SkipAll) {
		return nil, ruleResult, nil
	}
	audio := p.resolveSynthesis(rctx, ruleResult)
	return plan.Build(rctx, ruleResult, p.Policy.PlannerConfig(), audio, p.Policy.VersionLabel()), ruleResult, nil
}

// phaseBody evaluates the rules, builds the plan, and delegates execution.
// An empty plan completes the phase without touching the file.
func (p *Pipeline) phaseBody(phaseName string) func(ctx context.Context, job *phase.Job) (phase.BodyResult, error) {
	return func(ctx context.Context, job *phase.Job) (phase.BodyResult, error) {
		pl, ruleResult, err := p.buildPlan(job.Context)
		if err != nil {
			return phase.BodyResult{}, err
		}
		if pl == nil {
			return phase.BodyResult{Message: "skipped by rule " + ruleResult.MatchedRule}, nil
		}
		if pl.IsEmpty() {
			return phase.BodyResult{Message: "no changes required"}, nil
		}

		exec, ok := p.Registry.For(pl)
		if !ok {
			return phase.BodyResult{}, services.Wrap(services.ErrPlan, "worker", phaseName,
				"no registered executor can handle the plan", nil)
		}

		record, err := p.recordPlan(ctx, pl)
		if err != nil {
			return phase.BodyResult{}, err
		}
		op, err := p.beginOperation(ctx, record, phaseName, exec.Name())
		if err != nil {
			return phase.BodyResult{}, err
		}

		execResult, execErr := exec.Execute(ctx, pl, p.Options)

		if finishErr := p.finishOperation(ctx, record, op, execResult, execErr); finishErr != nil {
			return phase.BodyResult{}, finishErr
		}
		if execErr != nil {
			return phase.BodyResult{}, services.Wrap(services.ErrExternalTool, "worker", phaseName,
				"execute plan", execErr)
		}
		if !execResult.Success {
			return phase.BodyResult{}, services.Wrap(services.ErrExternalTool, "worker", phaseName,
				execResult.Message, nil)
		}
		return phase.BodyResult{FileModified: true, Message: execResult.Message}, nil
	}
}

func (p *Pipeline) resolveSynthesis(rctx *rules.Context, ruleResult *rules.Result) *plan.AudioPlan {
	if len(p.Policy.Synthesis) == 0 || ruleResult.Skipped(rules.SkipSynthesis) {
		return nil
	}
	logger := p.logger()
	audio := &plan.AudioPlan{}
	for _, target := range p.Policy.Synthesis {
		outcome, err := synth.Resolve(target, rctx, p.Capabilities)
		if err != nil {
			logger.Error("synthesis target failed",
				logging.String("codec", target.Codec),
				logging.Error(err))
		}
		if outcome.Skipped {
			logger.Debug("synthesis target skipped",
				logging.String("codec", target.Codec),
				logging.String("reason", string(outcome.Reason)),
				logging.String("detail", outcome.Detail))
			audio.Skipped = append(audio.Skipped, plan.SynthesisSkip{
				Codec:  target.Codec,
				Reason: string(outcome.Reason),
				Detail: outcome.Detail,
			})
			continue
		}
		if outcome.Operation != nil {
			audio.Synthesis = append(audio.Synthesis, *outcome.Operation)
		}
	}
	if len(audio.Synthesis) == 0 && len(audio.Skipped) == 0 {
		return nil
	}
	return audio
}

func (p *Pipeline) recordPlan(ctx context.Context, pl *plan.Plan) (audit.PlanRecord, error) {
	if p.Store == nil {
		return audit.PlanRecord{}, nil
	}
	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return audit.PlanRecord{}, err
	}
	record, err := p.Store.InsertPlan(ctx, tx, pl)
	if err != nil {
		_ = tx.Rollback()
		return audit.PlanRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return audit.PlanRecord{}, fmt.Errorf("commit plan record: %w", err)
	}
	return record, nil
}

func (p *Pipeline) beginOperation(ctx context.Context, record audit.PlanRecord, phaseName, execName string) (audit.Operation, error) {
	if p.Store == nil {
		return audit.Operation{}, nil
	}
	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return audit.Operation{}, err
	}
	if err := p.Store.UpdatePlanStatus(ctx, tx, record.ID, audit.StatusInProgress); err != nil {
		_ = tx.Rollback()
		return audit.Operation{}, err
	}
	op, err := p.Store.InsertOperation(ctx, tx, audit.Operation{
		PlanID:   record.ID,
		FilePath: record.FilePath,
		Phase:    phaseName,
		Action:   "execute via " + execName,
	})
	if err != nil {
		_ = tx.Rollback()
		return audit.Operation{}, err
	}
	if err := p.Store.UpdateOperationStatus(ctx, tx, op.ID, audit.StatusInProgress, ""); err != nil {
		_ = tx.Rollback()
		return audit.Operation{}, err
	}
	if err := tx.Commit(); err != nil {
		return audit.Operation{}, fmt.Errorf("commit operation start: %w", err)
	}
	return op, nil
}

func (p *Pipeline) finishOperation(ctx context.Context, record audit.PlanRecord, op audit.Operation, execResult executor.Result, execErr error) error {
	if p.Store == nil {
		return nil
	}
	status := audit.StatusCompleted
	message := ""
	switch {
	case execErr != nil:
		// The executor restored the backup before returning.
		status = audit.StatusRolledBack
		message = execErr.Error()
	case !execResult.Success:
		status = audit.StatusFailed
		message = execResult.Message
	}

	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := p.Store.UpdateOperationStatus(ctx, tx, op.ID, status, message); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := p.Store.UpdatePlanStatus(ctx, tx, record.ID, status); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit operation result: %w", err)
	}
	return nil
}
