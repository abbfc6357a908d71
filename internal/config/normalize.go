package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFiles()
	c.normalizeWorkers()
	c.normalizeExecutor()
	c.normalizeTools()
	if err := c.normalizePlugins(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	dirs := make([]string, 0, len(c.Paths.LibraryDirs))
	for _, dir := range c.Paths.LibraryDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.library_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Paths.LibraryDirs = dirs

	var err error
	if strings.TrimSpace(c.Paths.PolicyPath) == "" {
		c.Paths.PolicyPath = defaultPolicyPath
	}
	if c.Paths.PolicyPath, err = expandPath(c.Paths.PolicyPath); err != nil {
		return fmt.Errorf("paths.policy_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.AuditDBPath) == "" {
		c.Paths.AuditDBPath = defaultAuditDBPath
	}
	if c.Paths.AuditDBPath, err = expandPath(c.Paths.AuditDBPath); err != nil {
		return fmt.Errorf("paths.audit_db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFiles() {
	if len(c.Files.Extensions) == 0 {
		c.Files.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Files.Extensions))
	seen := make(map[string]struct{}, len(c.Files.Extensions))
	for _, ext := range c.Files.Extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append([]string(nil), defaultExtensions...)
	}
	c.Files.Extensions = exts
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount
	}
	if c.Workers.QueueDepth <= 0 {
		c.Workers.QueueDepth = defaultQueueDepth
	}
}

func (c *Config) normalizeExecutor() {
	if c.Executor.MinSizeRatio <= 0 {
		c.Executor.MinSizeRatio = defaultMinSizeRatio
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.Mkvmerge) == "" {
		c.Tools.Mkvmerge = "mkvmerge"
	}
	if strings.TrimSpace(c.Tools.Mkvpropedit) == "" {
		c.Tools.Mkvpropedit = "mkvpropedit"
	}
}

func (c *Config) normalizePlugins() error {
	normalizePlugin(&c.Plugins.Radarr, "RADARR_API_KEY")
	normalizePlugin(&c.Plugins.Sonarr, "SONARR_API_KEY")
	return nil
}

func normalizePlugin(p *Plugin, envKey string) {
	p.URL = strings.TrimRight(strings.TrimSpace(p.URL), "/")
	p.APIKey = strings.TrimSpace(p.APIKey)
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		p.APIKey = strings.TrimSpace(value)
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultPluginTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
