package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, opts ...RedisOption) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client, opts...), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("blockstack:k") {
		t.Error("key should be stored under the default prefix")
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("blockstack:k") {
		t.Error("deleted key still in redis")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mr.TTL("blockstack:k"); got != time.Minute {
		t.Errorf("TTL = %v, want 1m", got)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired key returned")
	}
}

func TestRedisCachePrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithPrefix("ws1:"))

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("ws1:k") || mr.Exists("blockstack:k") {
		t.Error("custom prefix not applied")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, addr, "", 0); !IsRetryable(err) {
		t.Errorf("NewRedisCache on closed server = %v, want retryable error", err)
	}
}

func TestRedisCacheCloseBorrowedClient(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The client belongs to the caller and stays usable.
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Errorf("Set after Close: %v", err)
	}
}
