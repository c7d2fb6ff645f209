package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yachtly/charter-service/internal/utils"
)

// Cache stores whole search results keyed by filter. Implementations must
// treat their own failures as misses.
type Cache interface {
	Get(ctx context.Context, f Filter) (*Result, bool)
	Set(ctx context.Context, f Filter, r *Result)
	// Invalidate drops every cached result, e.g. after reseeding boats.
	Invalidate(ctx context.Context) error
}

type noopCache struct{}

func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, Filter) (*Result, bool) { return nil, false }
func (noopCache) Set(context.Context, Filter, *Result)        {}
func (noopCache) Invalidate(context.Context) error            { return nil }

const (
	cachePrefix     = "boats:search"
	cacheVersionKey = cachePrefix + ":version"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

// FilterKey is a stable digest of a normalized filter.
func FilterKey(f Filter) string {
	raw, _ := json.Marshal(f)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (c *redisCache) key(ctx context.Context, f Filter) (string, error) {
	version, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", cachePrefix, version, FilterKey(f)), nil
}

func (c *redisCache) Get(ctx context.Context, f Filter) (*Result, bool) {
	key, err := c.key(ctx, f)
	if err != nil {
		utils.Logger.WithError(err).Warn("search cache: version lookup failed")
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.Logger.WithError(err).Warn("search cache: get failed")
		}
		return nil, false
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		utils.Logger.WithError(err).Warn("search cache: corrupt entry")
		return nil, false
	}
	return &r, true
}

func (c *redisCache) Set(ctx context.Context, f Filter, r *Result) {
	key, err := c.key(ctx, f)
	if err != nil {
		utils.Logger.WithError(err).Warn("search cache: version lookup failed")
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		utils.Logger.WithError(err).Warn("search cache: encode failed")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		utils.Logger.WithError(err).Warn("search cache: set failed")
	}
}

// Invalidate bumps the version so old keys are never read again; they age
// out on their TTL.
func (c *redisCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
