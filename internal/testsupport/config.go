package testsupport

import (
	"path/filepath"
	"testing"

	"medley/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDirs = []string{filepath.Join(base, "library")}
	cfg.Paths.PolicyPath = filepath.Join(base, "policy.yaml")
	cfg.Paths.AuditDBPath = filepath.Join(base, "audit.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkers sets the processing pool size on the test config.
func WithWorkers(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Count = count
	}
}

// WithKeepBackup keeps backup files after successful mutations.
func WithKeepBackup() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Executor.KeepBackup = true
	}
}

// WritePolicy fills the config's policy path with the provided document.
func WritePolicy(t testing.TB, cfg *config.Config, document string) {
	t.Helper()
	WriteBytes(t, cfg.Paths.PolicyPath, []byte(document))
}
