// Package cache provides a Redis-backed TTL cache for extracted threads.
// Caching is a gateway concern; the engine itself never reads or writes it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/threadscope/threadscope/engine/thread"
)

const keyPrefix = "threadscope:thread:"

// ThreadCache stores ThreadResults keyed by post code.
type ThreadCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache against the Redis server at addr. An empty addr
// returns a disabled cache whose operations are no-ops.
func New(addr, password string, ttl time.Duration) *ThreadCache {
	if addr == "" {
		return &ThreadCache{}
	}
	return &ThreadCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		ttl: ttl,
	}
}

// Enabled reports whether the cache is backed by a live client.
func (c *ThreadCache) Enabled() bool { return c.rdb != nil }

// Key returns the Redis key for a post code.
func Key(postCode string) string { return keyPrefix + postCode }

// Get returns the cached result for postCode and whether it was present.
func (c *ThreadCache) Get(ctx context.Context, postCode string) (thread.ThreadResult, bool, error) {
	var zero thread.ThreadResult
	if c.rdb == nil {
		return zero, false, nil
	}
	data, err := c.rdb.Get(ctx, Key(postCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var result thread.ThreadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, false, err
	}
	return result, true, nil
}

// Set stores result under postCode with the cache TTL.
func (c *ThreadCache) Set(ctx context.Context, postCode string, result thread.ThreadResult) error {
	if c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(postCode), data, c.ttl).Err()
}

// Close releases the underlying client.
func (c *ThreadCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
