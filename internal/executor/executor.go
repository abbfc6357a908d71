package executor

import (
	"context"
	"fmt"
	"sync"

	"medley/internal/media"
	"medley/internal/plan"
	"medley/internal/services"
)

// Options controls what an executor leaves behind after a successful run.
type Options struct {
	// KeepBackup retains the pre-mutation backup copy.
	KeepBackup bool
	// KeepOriginal retains the original file when a conversion produces a
	// new one.
	KeepOriginal bool
}

// Result reports the outcome of one executed plan.
type Result struct {
	Success    bool
	Message    string
	BackupPath string
}

// Executor applies plans it declares itself capable of.
type Executor interface {
	Name() string
	CanHandle(p *plan.Plan) bool
	Execute(ctx context.Context, p *plan.Plan, opts Options) (Result, error)
}

// Analyzer introspects a file into a container description. Analyzers never
// mutate.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, path string) (media.Container, error)
}

// Registry holds the registered executors and analyzers. Capabilities are
// validated at registration so a broken plugin fails at startup, not
// mid-mutation.
type Registry struct {
	mu        sync.RWMutex
	executors []Executor
	analyzers map[string]Analyzer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// RegisterExecutor adds a mutating executor. Names must be unique.
func (r *Registry) RegisterExecutor(exec Executor) error {
	if exec == nil {
		return services.Wrap(services.ErrValidation, "executor", "register",
			"executor must not be nil", nil)
	}
	name := exec.Name()
	if name == "" {
		return services.Wrap(services.ErrValidation, "executor", "register",
			"executor name must not be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.executors {
		if existing.Name() == name {
			return services.Wrap(services.ErrValidation, "executor", "register",
				fmt.Sprintf("duplicate executor %q", name), nil)
		}
	}
	r.executors = append(r.executors, exec)
	return nil
}

// RegisterAnalyzer adds an analyzer. Names must be unique.
func (r *Registry) RegisterAnalyzer(analyzer Analyzer) error {
	if analyzer == nil {
		return services.Wrap(services.ErrValidation, "executor", "register",
			"analyzer must not be nil", nil)
	}
	name := analyzer.Name()
	if name == "" {
		return services.Wrap(services.ErrValidation, "executor", "register",
			"analyzer name must not be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.analyzers[name]; ok {
		return services.Wrap(services.ErrValidation, "executor", "register",
			fmt.Sprintf("duplicate analyzer %q", name), nil)
	}
	r.analyzers[name] = analyzer
	return nil
}

// For returns the first registered executor that can handle the plan, in
// registration order.
func (r *Registry) For(p *plan.Plan) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, exec := range r.executors {
		if exec.CanHandle(p) {
			return exec, true
		}
	}
	return nil, false
}

// Analyzer returns a registered analyzer by name.
func (r *Registry) Analyzer(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	analyzer, ok := r.analyzers[name]
	return analyzer, ok
}
