package policy

import (
	"os"
	"sync"
	"time"

	"medley/internal/services"
)

// Cache holds compiled policies keyed by path and modification time. It is
// constructor-injected rather than package-level so tests and callers
// control its lifetime; a changed file recompiles on the next Get.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	policy  *Policy
}

// NewCache returns an empty policy cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the compiled policy for path, loading it on first use or when
// the file changed since the cached compile.
func (c *Cache) Get(path string) (*Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "policy", "stat", path, err)
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.policy, nil
	}

	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: info.ModTime(), size: info.Size(), policy: p}
	c.mu.Unlock()
	return p, nil
}

// Clear drops every cached policy.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
