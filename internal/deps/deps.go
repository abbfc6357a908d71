package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"medley/internal/config"
)

// Requirement defines an external dependency Medley relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external tools the configured setup needs.
// Introspection and property edits are required; ffmpeg is optional unless
// the policy synthesizes audio, and mkvmerge is only needed for remuxing.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "Container introspection"},
		{Name: "mkvpropedit", Command: cfg.Tools.Mkvpropedit, Description: "In-place track property edits"},
		{Name: "mkvmerge", Command: cfg.Tools.Mkvmerge, Description: "Track removal and reordering", Optional: true},
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "Audio synthesis and container conversion", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
