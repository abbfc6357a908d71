package main

import (
	"log/slog"

	"medley/internal/audit"
	"medley/internal/config"
	"medley/internal/executor"
	"medley/internal/plugin"
	"medley/internal/policy"
	"medley/internal/snapshot"
	"medley/internal/synth"
	"medley/internal/worker"
)

// buildPipeline wires the processing pipeline from its resolved parts. The
// snapshot executor registers last so tool-backed executors added earlier
// win plan dispatch.
func buildPipeline(cfg *config.Config, pol *policy.Policy, store *audit.Store, capabilities *synth.Capabilities, sources *plugin.Sources, logger *slog.Logger) (*worker.Pipeline, error) {
	registry := executor.NewRegistry()
	if err := registry.RegisterAnalyzer(snapshot.Analyzer{}); err != nil {
		return nil, err
	}
	if err := registry.RegisterExecutor(snapshot.Executor{}); err != nil {
		return nil, err
	}

	pipeline := &worker.Pipeline{
		Policy:       pol,
		Analyzer:     snapshot.Analyzer{},
		Registry:     registry,
		Store:        store,
		Capabilities: capabilities,
		Options: executor.Options{
			KeepBackup:   cfg.Executor.KeepBackup,
			KeepOriginal: cfg.Executor.KeepOriginal,
		},
		Logger: logger,
	}
	if sources != nil {
		pipeline.Plugins = sources
	}
	return pipeline, nil
}
