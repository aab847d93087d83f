// Package cache implements the TTL permission cache used by the permission
// authority to short-circuit checks.
//
// Keys are structured composites, never caller-formatted strings, so
// invalidation is index driven instead of pattern matched. Positive results
// are kept longer than negative ones: a denial is assumed more likely to
// change soon (a grant was just added) and is kept short to bound staleness.
//
// A broken cache backend degrades to always-miss. Backend errors are logged
// and swallowed; a permission check is never blocked or failed by the cache.
package cache

import (
	"context"
	"time"
)

const (
	// PositiveTTL is how long a cached allow is kept.
	PositiveTTL = 300 * time.Second
	// NegativeTTL is how long a cached denial is kept.
	NegativeTTL = 60 * time.Second
)

// Key identifies one cached permission check result.
type Key struct {
	UserID       uint64
	ResourceType string
	ResourceID   string
	Permission   string
}

// Cache is the permission cache contract. Get distinguishes a cached denial
// (false, true) from a miss (_, false); callers must only trust the value
// when ok is true.
type Cache interface {
	Get(ctx context.Context, key Key) (value bool, ok bool)
	Put(ctx context.Context, key Key, value bool)
	InvalidateUser(ctx context.Context, userID uint64)
	InvalidateResource(ctx context.Context, resourceType, resourceID string)
	Close() error
}

// ttlFor selects the TTL matching the truth value of a result.
func ttlFor(value bool) time.Duration {
	if value {
		return PositiveTTL
	}

	return NegativeTTL
}
