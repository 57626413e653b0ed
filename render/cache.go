// ABOUTME: In-memory render cache keyed by document identity with TTL-based expiry.
// ABOUTME: Wraps a Renderer so repeated renders of the same document reuse the written SVG.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/2389-research/sketchtex/tikz"
)

// cacheEntry holds a single cached rendering with its creation timestamp.
type cacheEntry struct {
	rendering *Rendering
	createdAt time.Time
}

// Cache wraps a Renderer with an in-memory cache keyed by document identity.
// Entries expire after the configured TTL. Errors are never cached, so a
// transient converter failure does not poison a document.
type Cache struct {
	renderer Renderer
	ttl      time.Duration
	entries  map[string]*cacheEntry
	mu       sync.RWMutex
}

// NewCache creates a Cache wrapping the given renderer.
func NewCache(renderer Renderer, ttl time.Duration) *Cache {
	return &Cache{
		renderer: renderer,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
	}
}

// Render returns the cached rendering for the document when available and not
// expired, delegating to the wrapped renderer otherwise.
func (c *Cache) Render(ctx context.Context, doc tikz.Document) (*Rendering, error) {
	key := doc.Key()

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok {
		if time.Since(entry.createdAt) < c.ttl {
			rendering := entry.rendering
			c.mu.RUnlock()
			return rendering, nil
		}
	}
	c.mu.RUnlock()

	rendering, err := c.renderer.Render(ctx, doc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		rendering: rendering,
		createdAt: time.Now(),
	}
	c.mu.Unlock()

	return rendering, nil
}

// Len returns the number of entries currently in the cache (including expired ones).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
