package plugin

import (
	"context"
	"log/slog"
	"time"

	"medley/internal/config"
	"medley/internal/logging"
)

// Sources queries every configured client and merges the results into the
// namespace map consumed by rule evaluation.
type Sources struct {
	clients []*Client
	logger  *slog.Logger
}

// NewSources wraps a set of clients. A nil logger is replaced with a no-op.
func NewSources(logger *slog.Logger, clients ...*Client) *Sources {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sources{clients: clients, logger: logger}
}

// FromConfig builds the sources enabled in the configuration. It returns
// nil when no plugin is enabled so callers can skip metadata lookup
// entirely.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Sources, error) {
	entries := []struct {
		name   string
		plugin config.Plugin
	}{
		{"radarr", cfg.Plugins.Radarr},
		{"sonarr", cfg.Plugins.Sonarr},
	}

	var clients []*Client
	for _, entry := range entries {
		if !entry.plugin.Enabled {
			continue
		}
		client, err := NewClient(entry.name, entry.plugin.URL, entry.plugin.APIKey,
			WithTimeout(time.Duration(entry.plugin.TimeoutSeconds)*time.Second))
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		return nil, nil
	}
	return NewSources(logger, clients...), nil
}

// Metadata fetches every source's fields for the file. Failing sources are
// logged and contribute an empty namespace.
func (s *Sources) Metadata(ctx context.Context, path string) (map[string]map[string]any, error) {
	merged := make(map[string]map[string]any, len(s.clients))
	for _, client := range s.clients {
		fields, err := client.Fields(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("plugin metadata unavailable",
				logging.String("plugin", client.Name()),
				logging.String("file", path),
				logging.Error(err))
			merged[client.Name()] = map[string]any{}
			continue
		}
		merged[client.Name()] = fields
	}
	return merged, nil
}
