package synth

import (
	"strings"
	"sync"
)

// codecEncoders maps a target codec to its ffmpeg encoder name.
var codecEncoders = map[string]string{
	"eac3": "eac3",
	"aac":  "aac",
	"ac3":  "ac3",
	"opus": "libopus",
	"flac": "flac",
}

// defaultBitrates keys codec then channel count. FLAC is lossless and
// carries no bitrate.
var defaultBitrates = map[string]map[int]string{
	"eac3": {1: "128k", 2: "256k", 6: "640k", 8: "960k"},
	"ac3":  {1: "96k", 2: "192k", 6: "448k"},
	"aac":  {1: "96k", 2: "160k", 6: "384k", 8: "512k"},
	"opus": {1: "64k", 2: "128k", 6: "256k", 8: "450k"},
}

// EncoderFor returns the ffmpeg encoder name for a synthesis codec.
func EncoderFor(codec string) (string, bool) {
	encoder, ok := codecEncoders[strings.ToLower(strings.TrimSpace(codec))]
	return encoder, ok
}

// DefaultBitrate returns the bitrate for a codec/channel pair, empty when
// the codec is lossless or the pair is unknown.
func DefaultBitrate(codec string, channels int) string {
	if rates, ok := defaultBitrates[strings.ToLower(strings.TrimSpace(codec))]; ok {
		return rates[channels]
	}
	return ""
}

// Capabilities is the externally detected encoder set. It is constructed by
// the caller (typically from "ffmpeg -encoders" output) and injected into
// resolution; the planner never fabricates availability.
type Capabilities struct {
	mu       sync.RWMutex
	encoders map[string]bool
}

// NewCapabilities builds a capability set from detected encoder names.
func NewCapabilities(encoders []string) *Capabilities {
	c := &Capabilities{}
	c.Replace(encoders)
	return c
}

// Has reports whether the encoder was detected.
func (c *Capabilities) Has(encoder string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoders[strings.ToLower(strings.TrimSpace(encoder))]
}

// Replace swaps in a freshly detected encoder set.
func (c *Capabilities) Replace(encoders []string) {
	set := make(map[string]bool, len(encoders))
	for _, e := range encoders {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = true
		}
	}
	c.mu.Lock()
	c.encoders = set
	c.mu.Unlock()
}

// Clear empties the set, forcing re-detection before the next resolution.
func (c *Capabilities) Clear() {
	c.mu.Lock()
	c.encoders = nil
	c.mu.Unlock()
}
