package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is prepended to every key stored by RedisCache.
const DefaultRedisPrefix = "blockstack:"

// RedisCache stores entries in Redis. Expiry is delegated to Redis.
type RedisCache struct {
	client *backend.Client
	prefix string
	owned  bool
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithPrefix replaces the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisCache) { c.prefix = prefix }
}

// NewRedisCache connects to the Redis server at addr and checks that it
// answers.
func NewRedisCache(ctx context.Context, addr, password string, db int, opts ...RedisOption) (Cache, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, classify(err))
	}
	c := NewRedisCacheFromClient(client, opts...)
	c.owned = true
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. Close does not close
// a client it did not create.
func NewRedisCacheFromClient(client *backend.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", classify(err))
	}
	return data, true, nil
}

// Set stores a value in Redis.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", classify(err))
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", classify(err))
	}
	return nil
}

// Close closes the client if the cache created it.
func (c *RedisCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}

// classify marks transport failures as retryable.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	return err
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
