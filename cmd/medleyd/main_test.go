package main

import (
	"path/filepath"
	"testing"

	"medley/internal/audit"
	"medley/internal/config"
	"medley/internal/plan"
	"medley/internal/policy"
)

const daemonTestPolicy = `
version: 1
name: cleanup
rules:
  - name: default-eng-audio
    when: exists(audio, lang == eng)
    then:
      - set_default:
          type: audio
          language: eng
          value: true
phases:
  - name: apply
`

func TestBuildPipelineWiresSnapshotFallback(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Executor.KeepBackup = true

	pol, err := policy.Parse([]byte(daemonTestPolicy), "test")
	if err != nil {
		t.Fatalf("parse policy: %v", err)
	}

	store, err := audit.Open(filepath.Join(base, "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pipeline, err := buildPipeline(&cfg, pol, store, nil, nil, nil)
	if err != nil {
		t.Fatalf("buildPipeline: %v", err)
	}

	if pipeline.Policy != pol {
		t.Fatal("pipeline must carry the loaded policy")
	}
	if !pipeline.Options.KeepBackup {
		t.Fatal("executor options must follow the config")
	}
	if pipeline.Plugins != nil {
		t.Fatal("nil sources must leave metadata lookup disabled")
	}

	exec, ok := pipeline.Registry.For(&plan.Plan{Path: "/library/show.mkv"})
	if !ok {
		t.Fatal("expected the snapshot executor to handle any plan")
	}
	if exec.Name() != "snapshot" {
		t.Fatalf("unexpected executor %q", exec.Name())
	}

	analyzer, ok := pipeline.Registry.Analyzer("snapshot")
	if !ok {
		t.Fatal("expected the snapshot analyzer to be registered")
	}
	if analyzer.Name() != "snapshot" {
		t.Fatalf("unexpected analyzer %q", analyzer.Name())
	}
}
