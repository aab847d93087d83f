package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisCache starts a miniredis server and a cache on top of it.
func setupRedisCache(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewRedisCache(NewRedisClient(mr.Addr(), "", 0))

	t.Cleanup(func() {
		_ = c.Close()
	})

	return mr, c
}

func TestRedisCacheGetPut(t *testing.T) {
	ctx := context.Background()
	_, c := setupRedisCache(t)

	key := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}

	value, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.False(t, value)

	c.Put(ctx, key, true)

	value, ok = c.Get(ctx, key)
	assert.True(t, ok)
	assert.True(t, value)

	denied := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "delete"}
	c.Put(ctx, denied, false)

	value, ok = c.Get(ctx, denied)
	assert.True(t, ok)
	assert.False(t, value)
}

func TestRedisCacheTTLPerOutcome(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedisCache(t)

	positive := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}
	negative := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "write"}

	c.Put(ctx, positive, true)
	c.Put(ctx, negative, false)

	require.Equal(t, PositiveTTL, mr.TTL(valueKey(positive)))
	require.Equal(t, NegativeTTL, mr.TTL(valueKey(negative)))

	// after the negative TTL only the positive entry survives
	mr.FastForward(NegativeTTL + time.Second)

	_, ok := c.Get(ctx, positive)
	assert.True(t, ok)

	_, ok = c.Get(ctx, negative)
	assert.False(t, ok, "negative entry should have expired")

	mr.FastForward(PositiveTTL)

	_, ok = c.Get(ctx, positive)
	assert.False(t, ok, "positive entry should have expired")
}

func TestRedisCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	_, c := setupRedisCache(t)

	mine := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}
	mineToo := Key{UserID: 1, ResourceType: "report", ResourceID: "r9", Permission: "write"}
	other := Key{UserID: 2, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}

	c.Put(ctx, mine, true)
	c.Put(ctx, mineToo, false)
	c.Put(ctx, other, true)

	c.InvalidateUser(ctx, 1)

	_, ok := c.Get(ctx, mine)
	assert.False(t, ok)

	_, ok = c.Get(ctx, mineToo)
	assert.False(t, ok)

	value, ok := c.Get(ctx, other)
	assert.True(t, ok)
	assert.True(t, value)
}

func TestRedisCacheInvalidateResource(t *testing.T) {
	ctx := context.Background()
	_, c := setupRedisCache(t)

	wf1User1 := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}
	wf1User2 := Key{UserID: 2, ResourceType: "workflow", ResourceID: "wf1", Permission: "write"}
	wf2 := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf2", Permission: "read"}

	c.Put(ctx, wf1User1, true)
	c.Put(ctx, wf1User2, true)
	c.Put(ctx, wf2, true)

	c.InvalidateResource(ctx, "workflow", "wf1")

	_, ok := c.Get(ctx, wf1User1)
	assert.False(t, ok)

	_, ok = c.Get(ctx, wf1User2)
	assert.False(t, ok)

	_, ok = c.Get(ctx, wf2)
	assert.True(t, ok)
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedisCache(t)

	key := Key{UserID: 1, ResourceType: "workflow", ResourceID: "wf1", Permission: "read"}
	c.Put(ctx, key, true)

	// a dead backend must behave like an empty cache, never error
	mr.Close()

	value, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.False(t, value)

	// writes and invalidations must not panic either
	c.Put(ctx, key, true)
	c.InvalidateUser(ctx, 1)
	c.InvalidateResource(ctx, "workflow", "wf1")
}
