package cache

import (
	"context"
	"fmt"
	"time"

	"conduit/config"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the Redis client used for the tag list. A nil *Cache is valid
// and behaves as a miss on every call, so the server runs fine without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects using REDIS_URL when present, else a plain address. The
// caller treats a connection failure as non-fatal.
func New(cfg config.CacheConfig) (*Cache, error) {
	var client *redis.Client

	switch {
	case cfg.URL != "":
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client = redis.NewClient(opt)
	case cfg.Addr != "":
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr})
	default:
		client = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// Get returns the cached value, or "" on a miss (or when Redis is absent).
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if c == nil || c.client == nil {
		return "", nil
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
