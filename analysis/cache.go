package analysis

import "sync"

// Cache memoizes prior engine output keyed by grid fingerprint so a re-run
// over unchanged data can skip the external classifier call. Callers supply
// the cache explicitly; the engine keeps no module-level state.
type Cache interface {
	Get(key string) (*Snapshot, bool)
	Put(key string, snap *Snapshot)
}

// MemoryCache is a bounded in-memory Cache. Eviction is arbitrary once full;
// the working set is a handful of uploads per session.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Snapshot
	max     int
}

// NewMemoryCache creates a cache holding at most max snapshots.
func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = 16
	}
	return &MemoryCache{entries: make(map[string]*Snapshot, max), max: max}
}

// Get implements Cache.
func (c *MemoryCache) Get(key string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[key]
	return snap, ok
}

// Put implements Cache.
func (c *MemoryCache) Put(key string, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = snap
}
