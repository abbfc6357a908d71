package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"medley/internal/services"
)

// Parse compiles a policy document from raw YAML. source names the origin
// for error messages.
func Parse(data []byte, source string) (*Policy, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrValidation, "policy", "parse",
				fmt.Sprintf("%s: document is empty", source), nil)
		}
		return nil, services.Wrap(services.ErrValidation, "policy", "parse", source, err)
	}

	sum := sha256.Sum256(data)
	return compile(&doc, source, hex.EncodeToString(sum[:6]))
}

// Load reads and compiles a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "load", path, err)
	}
	return Parse(data, path)
}
