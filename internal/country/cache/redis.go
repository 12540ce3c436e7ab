// Package cache keeps list and status query results in Redis. Entries are
// namespaced by a generation counter so one INCR invalidates all of them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

const (
	defaultTTL    = 5 * time.Minute
	defaultPrefix = "countries:"
	generationKey = "generation"
)

// RedisCache implements the query cache on Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithKeyPrefix namespaces every key, for sharing a Redis database.
func WithKeyPrefix(prefix string) Option {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedis constructs a Redis-backed query cache.
func NewRedis(client *redis.Client, ttl time.Duration, opts ...Option) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &RedisCache{client: client, ttl: ttl, prefix: defaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetCountries returns the cached list and the generation it was looked up
// under. The generation is valid on a miss too, so the caller can fill the
// entry with SetCountries without racing an Invalidate.
func (c *RedisCache) GetCountries(ctx context.Context, filter models.Filter, order models.SortOrder) ([]*models.Country, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}
	var countries []*models.Country
	if err := c.get(ctx, c.listKey(gen, filter, order), &countries); err != nil {
		return nil, gen, err
	}
	return countries, gen, nil
}

// SetCountries stores the list under gen. Writing to a generation that has
// since been invalidated leaves an entry nobody reads.
func (c *RedisCache) SetCountries(ctx context.Context, gen int64, filter models.Filter, order models.SortOrder, countries []*models.Country) error {
	if countries == nil {
		countries = []*models.Country{}
	}
	return c.set(ctx, c.listKey(gen, filter, order), countries)
}

func (c *RedisCache) GetStatus(ctx context.Context) (models.Status, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return models.Status{}, 0, err
	}
	var status models.Status
	if err := c.get(ctx, c.statusKey(gen), &status); err != nil {
		return models.Status{}, gen, err
	}
	return status, gen, nil
}

func (c *RedisCache) SetStatus(ctx context.Context, gen int64, status models.Status) error {
	return c.set(ctx, c.statusKey(gen), status)
}

// Invalidate bumps the generation. Entries of older generations are never
// read again and expire with their TTL.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.prefix+generationKey).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, c.prefix+generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) listKey(gen int64, filter models.Filter, order models.SortOrder) string {
	q := url.Values{}
	q.Set("region", filter.Region)
	q.Set("currency", filter.CurrencyCode)
	q.Set("sort", string(order))
	return fmt.Sprintf("%sv%d:list:%s", c.prefix, gen, q.Encode())
}

func (c *RedisCache) statusKey(gen int64) string {
	return fmt.Sprintf("%sv%d:status", c.prefix, gen)
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cache entry: %w", err)
	}
	return nil
}

func (c *RedisCache) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
