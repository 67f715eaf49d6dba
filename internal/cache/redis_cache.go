package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache adapts a redis client to the Cache interface for string keys.
// Values are stored as JSON. Redis errors degrade to cache misses so the
// caller always falls back to the source of truth.
type RedisCache[V any] struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisCache constructs a RedisCache with the given key prefix.
func NewRedisCache[V any](client *redis.Client, prefix string) *RedisCache[V] {
	return &RedisCache[V]{
		client:  client,
		prefix:  prefix,
		timeout: 500 * time.Millisecond,
	}
}

// NewRedisClient dials a single-node redis instance tuned for cache traffic.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   2,
	})
}

func (c *RedisCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.client == nil {
		return zero, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

func (c *RedisCache[V]) Set(key string, value V, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *RedisCache[V]) Delete(key string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_ = c.client.Del(ctx, c.prefix+key).Err()
}
