package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// DetectEncoders runs "ffmpeg -encoders" and returns the audio encoder
// names. An empty slice with a nil error means ffmpeg ran but advertised no
// audio encoders; a missing or failing binary returns the error so the
// caller can decide whether synthesis is mandatory.
func DetectEncoders(ctx context.Context, ffmpegCommand string) ([]string, error) {
	command := strings.TrimSpace(ffmpegCommand)
	if command == "" {
		command = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, command, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseEncoderList(output), nil
}

// parseEncoderList extracts audio encoder names from ffmpeg's listing.
// Lines look like " A....D aac  AAC (Advanced Audio Coding)"; the first
// capability letter identifies the media type.
func parseEncoderList(output []byte) []string {
	var encoders []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	inList := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inList {
			if strings.HasPrefix(strings.TrimSpace(line), "---") {
				inList = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		flags := fields[0]
		if !strings.HasPrefix(flags, "A") {
			continue
		}
		encoders = append(encoders, fields[1])
	}
	return encoders
}
