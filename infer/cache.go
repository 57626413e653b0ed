// ABOUTME: Single-slot client cache with an explicit lifecycle, owned and passed by handle.
// ABOUTME: Reuses the client while the backend config is unchanged; a config change evicts the slot.
package infer

import "sync"

// ClientCache holds at most one constructed Client. Building a client is
// cheap but callers treat it as a stand-in for an expensive model-loading
// step, so the slot is reused as long as the config matches and released
// explicitly when the owner shuts down.
type ClientCache struct {
	mu     sync.Mutex
	cfg    Config
	client *Client
}

// NewClientCache creates an empty cache slot.
func NewClientCache() *ClientCache {
	return &ClientCache{}
}

// Acquire returns the cached client for cfg, constructing and caching one
// when the slot is empty or holds a client for a different config.
func (c *ClientCache) Acquire(cfg Config) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.cfg == cfg {
		return c.client
	}
	c.client = NewClient(cfg)
	c.cfg = cfg
	return c.client
}

// Cached reports whether the slot currently holds a client.
func (c *ClientCache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// Clear releases the cached client. Safe to call on an empty slot.
func (c *ClientCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
	c.cfg = Config{}
}
