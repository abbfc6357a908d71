package phase

import (
	"context"
	"time"

	"medley/internal/rules"
)

// Outcome is the terminal state of one phase.
type Outcome string

const (
	OutcomePending   Outcome = "Pending"
	OutcomeCompleted Outcome = "Completed"
	OutcomeFailed    Outcome = "Failed"
	OutcomeSkipped   Outcome = "Skipped"
)

// SkipReasonType names why a phase was skipped.
type SkipReasonType string

const (
	// SkipCondition means the phase's own skip_when condition held.
	SkipCondition SkipReasonType = "Condition"
	// SkipDependency means a required dependency did not complete.
	SkipDependency SkipReasonType = "Dependency"
	// SkipErrorMode means an earlier failure forced the remainder skipped.
	SkipErrorMode SkipReasonType = "ErrorMode"
	// SkipRunIf means the run_if precondition was unmet.
	SkipRunIf SkipReasonType = "RunIf"
)

// SkipReason explains a Skipped outcome.
type SkipReason struct {
	Type    SkipReasonType `json:"type"`
	Message string         `json:"message"`
	Detail  string         `json:"detail,omitempty"`
}

// ErrorMode controls what happens to later phases after this phase fails.
type ErrorMode string

const (
	// ErrorModeFail stops the file; later phases stay Pending.
	ErrorModeFail ErrorMode = "fail"
	// ErrorModeContinue keeps evaluating later phases normally.
	ErrorModeContinue ErrorMode = "continue"
	// ErrorModeSkip forces every later phase Skipped without evaluation.
	ErrorModeSkip ErrorMode = "skip"
)

// BodyResult is what a phase body reports on success.
type BodyResult struct {
	// FileModified marks the file as changed on disk; it feeds later
	// phases' run_if preconditions and triggers re-introspection.
	FileModified bool
	Message      string
}

// Body is the executable part of a phase, typically a planner invocation
// followed by an executor call.
type Body interface {
	Execute(ctx context.Context, job *Job) (BodyResult, error)
}

// BodyFunc adapts a function to the Body interface.
type BodyFunc func(ctx context.Context, job *Job) (BodyResult, error)

func (f BodyFunc) Execute(ctx context.Context, job *Job) (BodyResult, error) {
	return f(ctx, job)
}

// Phase is one named unit of work in the policy's ordered phase list.
type Phase struct {
	Name string
	// DependsOn lists phases that must have Completed.
	DependsOn []string
	// RunIf lists phases that must have modified the file.
	RunIf []string
	// SkipWhen, if set, skips the phase when it evaluates true.
	SkipWhen *SkipWhen
	// OnError defaults to fail.
	OnError ErrorMode
	Body    Body
}

func (p Phase) errorMode() ErrorMode {
	if p.OnError == "" {
		return ErrorModeFail
	}
	return p.OnError
}

// Result is the recorded outcome of one phase.
type Result struct {
	Name         string        `json:"name"`
	Outcome      Outcome       `json:"outcome"`
	Skip         *SkipReason   `json:"skip,omitempty"`
	Error        string        `json:"error,omitempty"`
	Message      string        `json:"message,omitempty"`
	FileModified bool          `json:"file_modified,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// FileResult aggregates the phase results for one file. Success means no
// executed phase failed; skipped phases never count against it.
type FileResult struct {
	Path    string   `json:"path"`
	Phases  []Result `json:"phases"`
	Success bool     `json:"success"`
}

// PhaseResult returns the result recorded for a phase name.
func (r FileResult) PhaseResult(name string) (Result, bool) {
	for _, pr := range r.Phases {
		if pr.Name == name {
			return pr, true
		}
	}
	return Result{}, false
}

// Job is the per-file state handed to phase bodies: the evaluation context
// and an optional re-introspection hook invoked after a modifying phase.
type Job struct {
	Context *rules.Context
	// Refresh re-reads the container after a phase reports FileModified.
	// Nil leaves the context as-is.
	Refresh func(ctx context.Context) (*rules.Context, error)
}
