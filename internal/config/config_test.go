package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"medley/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if len(cfg.Paths.LibraryDirs) != 1 || cfg.Paths.LibraryDirs[0] != filepath.Join(tempHome, "library") {
		t.Fatalf("unexpected library dirs: %v", cfg.Paths.LibraryDirs)
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "medley", "audit.db")
	if cfg.Paths.AuditDBPath != wantDB {
		t.Fatalf("unexpected audit db path: got %q want %q", cfg.Paths.AuditDBPath, wantDB)
	}
	if cfg.Workers.Count != 2 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Executor.MinSizeRatio != 0.5 {
		t.Fatalf("unexpected min size ratio: %v", cfg.Executor.MinSizeRatio)
	}
	if cfg.Tools.FFprobe != "ffprobe" || cfg.Tools.Mkvmerge != "mkvmerge" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if cfg.Plugins.Radarr.Enabled {
		t.Fatal("expected radarr disabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.AuditDBPath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "medley.toml")

	type payload struct {
		Paths struct {
			LibraryDirs []string `toml:"library_dirs"`
			PolicyPath  string   `toml:"policy_path"`
		} `toml:"paths"`
		Workers struct {
			Count int `toml:"count"`
		} `toml:"workers"`
		Files struct {
			Extensions []string `toml:"extensions"`
		} `toml:"files"`
	}
	custom := payload{}
	custom.Paths.LibraryDirs = []string{filepath.Join(tempDir, "media")}
	custom.Paths.PolicyPath = filepath.Join(tempDir, "policy.yaml")
	custom.Workers.Count = 6
	custom.Files.Extensions = []string{".MKV", "mp4", "mkv", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Workers.Count != 6 {
		t.Fatalf("expected worker count 6, got %d", cfg.Workers.Count)
	}
	if len(cfg.Files.Extensions) != 2 || cfg.Files.Extensions[0] != "mkv" || cfg.Files.Extensions[1] != "mp4" {
		t.Fatalf("expected extensions deduped and lowercased, got %v", cfg.Files.Extensions)
	}
	if cfg.Paths.PolicyPath != custom.Paths.PolicyPath {
		t.Fatalf("unexpected policy path: %q", cfg.Paths.PolicyPath)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "medley.toml")

	type payload struct {
		Plugins struct {
			Radarr struct {
				Enabled bool   `toml:"enabled"`
				URL     string `toml:"url"`
				APIKey  string `toml:"api_key"`
			} `toml:"radarr"`
		} `toml:"plugins"`
	}
	custom := payload{}
	custom.Plugins.Radarr.Enabled = true
	custom.Plugins.Radarr.URL = "http://localhost:7878/"
	custom.Plugins.Radarr.APIKey = "file-radarr"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("RADARR_API_KEY", "env-radarr")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Plugins.Radarr.APIKey != "env-radarr" {
		t.Errorf("expected radarr key from env, got %q", cfg.Plugins.Radarr.APIKey)
	}
	if cfg.Plugins.Radarr.URL != "http://localhost:7878" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Plugins.Radarr.URL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_radarr_api_key_here") {
		t.Fatalf("sample config missing placeholder radarr key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(cfg.Paths.LibraryDirs) == 0 {
		t.Fatal("expected sample to list library dirs")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDirs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty library dirs")
	}

	cfg = config.Default()
	cfg.Workers.Count = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero worker count")
	}

	cfg = config.Default()
	cfg.Executor.MinSizeRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for size ratio above 1")
	}

	cfg = config.Default()
	cfg.Plugins.Radarr.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when radarr enabled without url")
	}
}

func TestEligible(t *testing.T) {
	cfg := config.Default()
	if !cfg.Eligible("show.mkv") || !cfg.Eligible("MOVIE.MP4") {
		t.Fatal("expected default extensions to match")
	}
	if cfg.Eligible("notes.txt") || cfg.Eligible("archive") {
		t.Fatal("expected non-media files to be rejected")
	}
}
