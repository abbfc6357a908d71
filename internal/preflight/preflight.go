package preflight

import (
	"context"
	"fmt"

	"medley/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for i, dir := range cfg.Paths.LibraryDirs {
		name := "Library directory"
		if len(cfg.Paths.LibraryDirs) > 1 {
			name = fmt.Sprintf("Library directory %d", i+1)
		}
		results = append(results, CheckDirectoryAccess(name, dir))
	}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckPolicy(cfg.Paths.PolicyPath))
	results = append(results, CheckAuditStore(ctx, cfg.Paths.AuditDBPath))

	if cfg.Plugins.Radarr.Enabled {
		results = append(results, CheckPlugin(ctx, "Radarr", cfg.Plugins.Radarr.URL, cfg.Plugins.Radarr.APIKey))
	}
	if cfg.Plugins.Sonarr.Enabled {
		results = append(results, CheckPlugin(ctx, "Sonarr", cfg.Plugins.Sonarr.URL, cfg.Plugins.Sonarr.APIKey))
	}

	return results
}
