package testsupport

import (
	"testing"

	"medley/internal/audit"
	"medley/internal/config"
)

// MustOpenStore opens an audit.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *audit.Store {
	t.Helper()

	store, err := audit.Open(cfg.Paths.AuditDBPath)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
