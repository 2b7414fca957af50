package cmd

import (
	"sync"
	"time"
)

// cacheEntry holds a cached snapshot with its timestamp.
type cacheEntry struct {
	result    SnapshotResult
	timestamp time.Time
}

// snapshotCache is a TTL cache for per-application snapshots, so rapid
// repeated MCP calls do not re-walk an unchanged tree. A ttl of 0
// disables caching.
type snapshotCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get returns a cached snapshot if fresh, otherwise builds one and
// caches it.
func (c *snapshotCache) get(app string, build func() (SnapshotResult, error)) (SnapshotResult, error) {
	if c.ttl == 0 {
		return build()
	}

	c.mu.Lock()
	if entry, ok := c.entries[app]; ok && time.Since(entry.timestamp) < c.ttl {
		result := entry.result
		c.mu.Unlock()
		return result, nil
	}
	c.mu.Unlock()

	result, err := build()
	if err != nil {
		return SnapshotResult{}, err
	}

	c.mu.Lock()
	c.entries[app] = cacheEntry{result: result, timestamp: time.Now()}
	c.mu.Unlock()
	return result, nil
}
