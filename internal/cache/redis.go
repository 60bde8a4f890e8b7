// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout = 5 * time.Second
	redisIOTimeout   = 3 * time.Second
	redisPoolSize    = 10
	redisScanBatch   = 100
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	URL        string // redis://[user:pass@]host:port/db
	Prefix     string // namespace of every key, defaults to "ocms:"
	DefaultTTL time.Duration
}

// RedisCache shares DeepL metadata between instances. All keys live below
// Prefix so Clear never touches foreign data.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	counters   counters
	closed     atomic.Bool
}

// NewRedisCache connects to Redis and verifies the connection with a PING.
func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	redisOpts.PoolSize = redisPoolSize
	redisOpts.DialTimeout = redisDialTimeout
	redisOpts.ReadTimeout = redisIOTimeout
	redisOpts.WriteTimeout = redisIOTimeout

	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	if opts.Prefix == "" {
		opts.Prefix = "ocms:"
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	return &RedisCache{client: client, prefix: opts.Prefix, defaultTTL: opts.DefaultTTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.counters.misses.Add(1)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, err
	}
	c.counters.hits.Add(1)
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	// go-redis reads 0 as "no expiration" and -1 as KEEPTTL.
	expiration := resolveTTL(ttl, c.defaultTTL)
	if expiration == NoExpiry {
		expiration = 0
	}
	if err := c.client.Set(ctx, c.prefix+key, value, expiration).Err(); err != nil {
		return err
	}
	c.counters.sets.Add(1)
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// Clear unlinks every key below the prefix, scanning in batches.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("scanning %s*: %w", c.prefix, err)
		}
		if len(keys) > 0 {
			if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("unlinking keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks the connection; the cache admin endpoint reports its result.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		return c.client.Close()
	}
	return nil
}

// Stats reports this instance's counters only.
func (c *RedisCache) Stats() Stats {
	return c.counters.snapshot()
}

var (
	_ Cacher        = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
	_ Pinger        = (*RedisCache)(nil)
)
