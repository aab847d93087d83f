package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemorySize is the per-outcome entry cap of the in-memory cache.
const DefaultMemorySize = 16384

// MemoryCache is an in-process permission cache built on two expirable LRUs,
// one per outcome, so each outcome gets its own TTL. It is the fallback when
// no Redis address is configured and the backend used in tests.
type MemoryCache struct {
	positive *lru.LRU[Key, struct{}]
	negative *lru.LRU[Key, struct{}]
}

// NewMemoryCache creates an in-memory permission cache holding up to size
// entries per outcome. A size of 0 uses DefaultMemorySize.
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultMemorySize
	}

	return &MemoryCache{
		positive: lru.NewLRU[Key, struct{}](size, nil, PositiveTTL),
		negative: lru.NewLRU[Key, struct{}](size, nil, NegativeTTL),
	}
}

// Get returns the cached result for key, if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key Key) (bool, bool) {
	if _, ok := c.positive.Get(key); ok {
		return true, true
	}

	if _, ok := c.negative.Get(key); ok {
		return false, true
	}

	return false, false
}

// Put stores the result for key under the TTL matching its truth value.
// The opposite outcome is dropped so the two LRUs never disagree.
func (c *MemoryCache) Put(_ context.Context, key Key, value bool) {
	if value {
		c.negative.Remove(key)
		c.positive.Add(key, struct{}{})

		return
	}

	c.positive.Remove(key)
	c.negative.Add(key, struct{}{})
}

// InvalidateUser drops every cached entry for the user.
func (c *MemoryCache) InvalidateUser(_ context.Context, userID uint64) {
	for _, key := range c.positive.Keys() {
		if key.UserID == userID {
			c.positive.Remove(key)
		}
	}

	for _, key := range c.negative.Keys() {
		if key.UserID == userID {
			c.negative.Remove(key)
		}
	}
}

// InvalidateResource drops every cached entry for the resource across users.
func (c *MemoryCache) InvalidateResource(_ context.Context, resourceType, resourceID string) {
	for _, key := range c.positive.Keys() {
		if key.ResourceType == resourceType && key.ResourceID == resourceID {
			c.positive.Remove(key)
		}
	}

	for _, key := range c.negative.Keys() {
		if key.ResourceType == resourceType && key.ResourceID == resourceID {
			c.negative.Remove(key)
		}
	}
}

// Close purges both LRUs.
func (c *MemoryCache) Close() error {
	c.positive.Purge()
	c.negative.Purge()

	return nil
}
