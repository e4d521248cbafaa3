package catalogmanager

import (
	"encoding/json"
	"strings"
	"sync"
)

// QueryCache holds listing responses keyed by API path. Entries are stored
// as JSON so callers always get their own copy.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string][]byte)}
}

// Get decodes the entry for key into dest and reports whether it was found
func (c *QueryCache) Get(key string, dest interface{}) bool {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *QueryCache) Set(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
}

// Invalidate drops every entry whose key starts with one of prefixes
func (c *QueryCache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Has reports whether key is cached
func (c *QueryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}
