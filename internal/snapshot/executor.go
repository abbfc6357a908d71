package snapshot

import (
	"context"
	"fmt"
	"os"

	"medley/internal/executor"
	"medley/internal/plan"
)

// Executor applies plans to snapshot documents. It handles every plan, so
// register it last when tool-backed executors are also present.
type Executor struct{}

func (Executor) Name() string { return "snapshot" }

func (Executor) CanHandle(_ *plan.Plan) bool { return true }

// Execute rewrites the snapshot document through the locked
// backup-then-verify path. MinSizeRatio is left at zero: applying a plan to
// a JSON document legitimately shrinks it when tracks are removed.
func (Executor) Execute(ctx context.Context, p *plan.Plan, opts executor.Options) (executor.Result, error) {
	doc := DocumentPath(p.Path)

	container, err := Load(p.Path)
	if err != nil {
		return executor.Result{}, err
	}
	updated, err := Apply(container, p)
	if err != nil {
		return executor.Result{}, err
	}
	data, err := Encode(updated)
	if err != nil {
		return executor.Result{}, err
	}

	backup, err := executor.MutateFile(ctx, doc, executor.MutateOptions{KeepBackup: opts.KeepBackup},
		func(_ context.Context, tmpPath string) error {
			return os.WriteFile(tmpPath, data, 0o644)
		})
	if err != nil {
		return executor.Result{}, err
	}

	return executor.Result{
		Success:    true,
		Message:    fmt.Sprintf("snapshot updated: %d tracks", len(updated.Tracks)),
		BackupPath: backup,
	}, nil
}
