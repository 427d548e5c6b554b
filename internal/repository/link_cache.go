package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dubinc/dub-sub007/internal/models"

	"github.com/redis/go-redis/v9"
)

// LinkCache keeps JSON-serialized LinkRecord projections in Redis. Entries
// carry no TTL: the owning system invalidates them explicitly when a link is
// edited or deleted, and staleness is tolerated until then.
type LinkCache struct {
	rdb *redis.Client
}

func NewLinkCache(rdb *redis.Client) *LinkCache {
	return &LinkCache{rdb: rdb}
}

// Get returns the cached record, or nil on a miss. A nil Redis client (cache
// disabled or unreachable at boot) behaves as a permanent miss.
func (c *LinkCache) Get(ctx context.Context, domain, key string) (*models.LinkRecord, error) {
	if c.rdb == nil {
		return nil, nil
	}
	val, err := c.rdb.Get(ctx, cacheKey(domain, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.LinkRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s/%s: %w", domain, key, err)
	}
	return &rec, nil
}

func (c *LinkCache) Set(ctx context.Context, domain, key string, rec *models.LinkRecord) error {
	if c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(domain, key), data, 0).Err()
}

func (c *LinkCache) Delete(ctx context.Context, domain, key string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, cacheKey(domain, key)).Err()
}

func cacheKey(domain, key string) string {
	return "link:" + domain + ":" + key
}
