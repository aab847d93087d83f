package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// keyPrefix versions the key layout. Bump it when the layout changes so
// stale entries from an older deployment are never read.
const keyPrefix = "authz:v1"

// indexTTL caps the lifetime of the invalidation index sets. It exceeds
// PositiveTTL so an index never outlives fewer entries than it references.
const indexTTL = 2 * PositiveTTL

// RedisCache is a Redis backed permission cache. Every value key is tracked
// in a per-user and a per-resource index set, so invalidation walks set
// membership instead of scanning the keyspace with pattern deletes.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a permission cache on top of an established client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func valueKey(key Key) string {
	return fmt.Sprintf("%s:u:%d:t:%s:r:%s:p:%s",
		keyPrefix, key.UserID, key.ResourceType, key.ResourceID, key.Permission)
}

func userIndexKey(userID uint64) string {
	return fmt.Sprintf("%s:idx:user:%d", keyPrefix, userID)
}

func resourceIndexKey(resourceType, resourceID string) string {
	return fmt.Sprintf("%s:idx:res:%s:%s", keyPrefix, resourceType, resourceID)
}

// Get returns the cached result for key. Backend errors degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, key Key) (bool, bool) {
	val, err := c.client.Get(ctx, valueKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("permission cache read failed, treating as miss")
		}

		return false, false
	}

	return val == "1", true
}

// Put stores the result for key with the TTL matching its truth value and
// registers the key in both invalidation indexes.
func (c *RedisCache) Put(ctx context.Context, key Key, value bool) {
	val := "0"
	if value {
		val = "1"
	}

	vk := valueKey(key)
	uk := userIndexKey(key.UserID)
	rk := resourceIndexKey(key.ResourceType, key.ResourceID)

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, vk, val, ttlFor(value))
	pipe.SAdd(ctx, uk, vk)
	pipe.Expire(ctx, uk, indexTTL)
	pipe.SAdd(ctx, rk, vk)
	pipe.Expire(ctx, rk, indexTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("permission cache write failed")
	}
}

// InvalidateUser drops every cached entry referenced by the user's index.
func (c *RedisCache) InvalidateUser(ctx context.Context, userID uint64) {
	c.invalidateIndex(ctx, userIndexKey(userID))
}

// InvalidateResource drops every cached entry referenced by the resource's index.
func (c *RedisCache) InvalidateResource(ctx context.Context, resourceType, resourceID string) {
	c.invalidateIndex(ctx, resourceIndexKey(resourceType, resourceID))
}

func (c *RedisCache) invalidateIndex(ctx context.Context, indexKey string) {
	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("index", indexKey).Msg("permission cache invalidation read failed")
		}

		return
	}

	keys := append(members, indexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("index", indexKey).Msg("permission cache invalidation delete failed")
	}
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NewRedisClient dials Redis with the service defaults.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}
