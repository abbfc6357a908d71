package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"medley/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckBinariesUnconfiguredCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Empty", Command: "  "}})
	if results[0].Available {
		t.Fatal("expected unconfigured command to be unavailable")
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("unexpected detail %q", results[0].Detail)
	}
}

func TestRequirementsFollowConfiguredTools(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFprobe = "/opt/ffprobe"

	reqs := Requirements(&cfg)
	byName := map[string]Requirement{}
	for _, req := range reqs {
		byName[req.Name] = req
	}

	if byName["ffprobe"].Command != "/opt/ffprobe" {
		t.Fatalf("expected configured ffprobe path, got %q", byName["ffprobe"].Command)
	}
	if byName["ffprobe"].Optional {
		t.Fatal("ffprobe must be required")
	}
	if !byName["ffmpeg"].Optional {
		t.Fatal("ffmpeg must be optional")
	}
}

func TestParseEncoderList(t *testing.T) {
	listing := []byte(`Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              H.264
 A....D aac                  AAC (Advanced Audio Coding)
 A....D eac3                 ATSC A/52B E-AC-3
 S..... srt                  SubRip subtitle
`)
	encoders := parseEncoderList(listing)
	if len(encoders) != 2 {
		t.Fatalf("expected 2 audio encoders, got %v", encoders)
	}
	if encoders[0] != "aac" || encoders[1] != "eac3" {
		t.Fatalf("unexpected encoders %v", encoders)
	}
}

func TestDetectEncodersMissingBinary(t *testing.T) {
	t.Setenv("PATH", "")
	if _, err := DetectEncoders(context.Background(), "clearly-not-present-binary"); err == nil {
		t.Fatal("expected error for missing ffmpeg")
	}
}
