package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a small cache-aside wrapper around Redis storing JSON values.
// A nil *Cache is valid and behaves as an always-miss cache, so callers do
// not need to guard every call site when Redis is not configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFromEnv builds a Cache from REDIS_ADDR and optional REDIS_PASSWORD /
// CACHE_TTL_SECONDS. It returns (nil, nil) when REDIS_ADDR is unset, which
// disables caching without failing startup.
func NewFromEnv(ctx context.Context) (*Cache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	ttl := 30 * time.Second
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		parsed, err := time.ParseDuration(v + "s")
		if err != nil || parsed <= 0 {
			return nil, errors.New("invalid CACHE_TTL_SECONDS")
		}
		ttl = parsed
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get unmarshals the cached JSON value for key into dest, or returns ErrMiss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if c == nil || c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set stores v as JSON under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate removes key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
