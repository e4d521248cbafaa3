package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTL constants
const (
	CatalogListCacheTTL = 15 * time.Minute
	CatalogTreeCacheTTL = 15 * time.Minute
)

const cacheKeyPrefix = "catalog:"

// listCache is a read-through JSON cache over redis. A nil client disables
// caching and every lookup misses.
type listCache struct {
	redis *redis.Client
}

func newListCache(client *redis.Client) *listCache {
	return &listCache{redis: client}
}

func (c *listCache) key(parts ...interface{}) string {
	key := cacheKeyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += fmt.Sprint(p)
	}
	return key
}

// get decodes the cached value into dest and reports whether it was found
func (c *listCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (c *listCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err == nil {
		c.redis.Set(ctx, key, data, ttl)
	}
}

// invalidate drops every cached catalog listing. Sibling groups are small and
// a mutation at any level changes the tree, so listings go together.
func (c *listCache) invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, cacheKeyPrefix+"*", 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			c.redis.Del(ctx, keys...)
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
