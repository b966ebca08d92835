// Package draft keeps unsaved note edits keyed by note path. The cache
// is shared across every pane and tab: closing a pane with edits parks
// them here, and any pane that later opens the same note picks them
// back up.
package draft

import (
	"sync"
	"time"
)

// MaxEntries bounds the cache. When full, the stalest draft is
// evicted to make room.
const MaxEntries = 100

type entry struct {
	content string
	updated time.Time
}

// Cache is a bounded, path-keyed store of unsaved edits. Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Save records content as the draft for path, replacing any previous
// draft. Saving under an empty path is ignored.
func (c *Cache) Save(path, content string) {
	if path == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; !ok && len(c.entries) >= MaxEntries {
		c.evictOldest()
	}
	c.entries[path] = entry{content: content, updated: c.now()}
}

// Get returns the draft for path, if one exists.
func (c *Cache) Get(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	return e.content, ok
}

// Has reports whether a draft exists for path.
func (c *Cache) Has(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[path]
	return ok
}

// Clear drops the draft for path. Clearing a path with no draft is a
// no-op.
func (c *Cache) Clear(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached drafts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns the cache contents for persistence.
func (c *Cache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for path, e := range c.entries {
		out[path] = e.content
	}
	return out
}

// Restore replaces the cache contents with a persisted snapshot.
// Entries beyond the cache bound are dropped in arbitrary order.
func (c *Cache) Restore(drafts map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry, len(drafts))
	now := c.now()
	for path, content := range drafts {
		if path == "" || len(c.entries) >= MaxEntries {
			continue
		}
		c.entries[path] = entry{content: content, updated: now}
	}
}

// evictOldest drops the entry with the oldest update time. Caller
// holds the lock.
func (c *Cache) evictOldest() {
	var victim string
	var oldest time.Time
	for path, e := range c.entries {
		if victim == "" || e.updated.Before(oldest) {
			victim = path
			oldest = e.updated
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
