package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"medley/internal/media"
	"medley/internal/services"
)

const sidecarSuffix = ".json"

// DocumentPath resolves the snapshot document for a media path: the path
// itself when it already names a JSON document, otherwise its sidecar.
func DocumentPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), sidecarSuffix) {
		return path
	}
	return path + sidecarSuffix
}

// Load reads a container snapshot for the given media path.
func Load(path string) (media.Container, error) {
	doc := DocumentPath(path)
	data, err := os.ReadFile(doc)
	if err != nil {
		if os.IsNotExist(err) {
			return media.Container{}, services.Wrap(services.ErrNotFound, "snapshot", "load", doc, err)
		}
		return media.Container{}, fmt.Errorf("read snapshot %s: %w", doc, err)
	}
	return Decode(data, path)
}

// Decode parses snapshot JSON and pins the container path to the media file
// it describes.
func Decode(data []byte, path string) (media.Container, error) {
	var container media.Container
	if err := json.Unmarshal(data, &container); err != nil {
		return media.Container{}, services.Wrap(services.ErrValidation, "snapshot", "decode",
			fmt.Sprintf("malformed snapshot for %s", path), err)
	}
	if container.Path == "" {
		container.Path = path
	}
	return container, nil
}

// Encode renders a container back to snapshot JSON.
func Encode(container media.Container) ([]byte, error) {
	data, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Analyzer loads container snapshots for the pipeline.
type Analyzer struct{}

func (Analyzer) Name() string { return "snapshot" }

func (Analyzer) Analyze(_ context.Context, path string) (media.Container, error) {
	return Load(path)
}
