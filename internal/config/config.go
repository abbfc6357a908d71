package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	LibraryDirs []string `toml:"library_dirs"`
	PolicyPath  string   `toml:"policy_path"`
	AuditDBPath string   `toml:"audit_db_path"`
	LogDir      string   `toml:"log_dir"`
}

// Files controls which library entries are eligible for processing.
type Files struct {
	Extensions []string `toml:"extensions"`
}

// Workers contains the processing pool configuration.
type Workers struct {
	Count      int `toml:"count"`
	QueueDepth int `toml:"queue_depth"`
}

// Executor contains file mutation safety settings.
type Executor struct {
	KeepBackup   bool    `toml:"keep_backup"`
	KeepOriginal bool    `toml:"keep_original"`
	MinSizeRatio float64 `toml:"min_size_ratio"`
}

// Tools names the external binaries used for introspection and remuxing.
type Tools struct {
	FFprobe     string `toml:"ffprobe"`
	FFmpeg      string `toml:"ffmpeg"`
	Mkvmerge    string `toml:"mkvmerge"`
	Mkvpropedit string `toml:"mkvpropedit"`
}

// Plugin contains connection settings for one metadata source.
type Plugin struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Plugins groups the supported metadata sources.
type Plugins struct {
	Radarr Plugin `toml:"radarr"`
	Sonarr Plugin `toml:"sonarr"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Medley.
//
// Configuration sections by subsystem:
//   - Paths: library roots, the policy document, audit database, and logs
//   - Files: eligible file extensions
//   - Workers: processing pool sizing
//   - Executor: backup and size verification knobs for file mutation
//   - Tools: external binary names or paths
//   - Plugins: Radarr/Sonarr metadata source connections
//   - Notifications: ntfy push notifications
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Files         Files         `toml:"files"`
	Workers       Workers       `toml:"workers"`
	Executor      Executor      `toml:"executor"`
	Tools         Tools         `toml:"tools"`
	Plugins       Plugins       `toml:"plugins"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/medley/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("medley.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Library directories are created on a best-effort basis so the daemon can
// run when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	required := []string{c.Paths.LogDir, filepath.Dir(c.Paths.AuditDBPath)}
	for _, dir := range required {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range c.Paths.LibraryDirs {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// Eligible reports whether a file name carries one of the configured
// extensions.
func (c *Config) Eligible(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, allowed := range c.Files.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
