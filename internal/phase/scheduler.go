package phase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medley/internal/logging"
)

// Scheduler walks a policy's ordered phase list over one file. It is
// stateless across files and safe to share between workers.
type Scheduler struct {
	logger *slog.Logger
}

// NewScheduler returns a scheduler logging through the given logger.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Run executes the phases in order and aggregates their outcomes. For each
// phase the gates apply in a fixed order: error-mode forcing from an earlier
// failure, then the phase's own skip condition, then run_if, then
// dependencies, then the body. A failing phase's error mode decides the
// remainder: fail leaves later phases Pending, skip forces them Skipped,
// continue keeps evaluating.
func (s *Scheduler) Run(ctx context.Context, job *Job, phases []Phase) FileResult {
	result := FileResult{Success: true}
	if job != nil && job.Context != nil {
		result.Path = job.Context.Container.Path
	}

	outcomes := make(map[string]Outcome, len(phases))
	modified := make(map[string]bool, len(phases))
	forceSkip := false
	stopped := false

	for _, phase := range phases {
		if stopped {
			result.Phases = append(result.Phases, Result{Name: phase.Name, Outcome: OutcomePending})
			outcomes[phase.Name] = OutcomePending
			continue
		}

		pr := s.runPhase(ctx, job, phase, outcomes, modified, forceSkip)
		result.Phases = append(result.Phases, pr)
		outcomes[phase.Name] = pr.Outcome
		modified[phase.Name] = pr.FileModified

		if pr.Outcome == OutcomeFailed {
			result.Success = false
			switch phase.errorMode() {
			case ErrorModeContinue:
			case ErrorModeSkip:
				forceSkip = true
			default:
				stopped = true
			}
		}
	}
	return result
}

func (s *Scheduler) runPhase(ctx context.Context, job *Job, phase Phase, outcomes map[string]Outcome, modified map[string]bool, forceSkip bool) Result {
	logger := s.logger.With(logging.String("phase", phase.Name))

	if forceSkip {
		return s.skipped(logger, phase, SkipReason{
			Type:    SkipErrorMode,
			Message: "earlier phase failed with on_error=skip",
		})
	}

	if job != nil && job.Context != nil && phase.SkipWhen != nil {
		if hold, trace := phase.SkipWhen.Evaluate(job.Context); hold {
			return s.skipped(logger, phase, SkipReason{
				Type:    SkipCondition,
				Message: "skip condition met",
				Detail:  trace,
			})
		}
	}

	for _, name := range phase.RunIf {
		if !modified[name] {
			return s.skipped(logger, phase, SkipReason{
				Type:    SkipRunIf,
				Message: fmt.Sprintf("phase %q did not modify the file", name),
			})
		}
	}

	for _, name := range phase.DependsOn {
		if outcome := outcomes[name]; outcome != OutcomeCompleted {
			detail := fmt.Sprintf("dependency %q outcome %s", name, outcome)
			if outcome == "" {
				detail = fmt.Sprintf("dependency %q never ran", name)
			}
			return s.skipped(logger, phase, SkipReason{
				Type:    SkipDependency,
				Message: "dependency not completed",
				Detail:  detail,
			})
		}
	}

	if phase.Body == nil {
		logger.Warn("phase has no body")
		return Result{Name: phase.Name, Outcome: OutcomeCompleted}
	}

	logger.Info("phase started")
	start := time.Now()
	body, err := phase.Body.Execute(ctx, job)
	duration := time.Since(start)
	if err != nil {
		logger.Error("phase failed",
			logging.Error(err),
			logging.Duration("phase_duration", duration))
		return Result{
			Name:     phase.Name,
			Outcome:  OutcomeFailed,
			Error:    err.Error(),
			Duration: duration,
		}
	}

	if body.FileModified && job != nil && job.Refresh != nil {
		fresh, refreshErr := job.Refresh(ctx)
		if refreshErr != nil {
			logger.Error("re-introspection after modification failed",
				logging.Error(refreshErr),
				logging.Duration("phase_duration", duration))
			return Result{
				Name:         phase.Name,
				Outcome:      OutcomeFailed,
				Error:        fmt.Sprintf("refresh container: %v", refreshErr),
				FileModified: true,
				Duration:     duration,
			}
		}
		job.Context = fresh
	}

	logger.Info("phase completed",
		logging.Bool("file_modified", body.FileModified),
		logging.Duration("phase_duration", duration))
	return Result{
		Name:         phase.Name,
		Outcome:      OutcomeCompleted,
		Message:      body.Message,
		FileModified: body.FileModified,
		Duration:     duration,
	}
}

func (s *Scheduler) skipped(logger *slog.Logger, phase Phase, reason SkipReason) Result {
	logger.Info("phase skipped",
		logging.String("skip_reason", string(reason.Type)),
		logging.String("skip_detail", reason.Detail))
	return Result{Name: phase.Name, Outcome: OutcomeSkipped, Skip: &reason}
}
