// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// newTestRedis connects to OCMS_TEST_REDIS_URL or skips the test.
func newTestRedis(t *testing.T, prefix string) *RedisCache {
	t.Helper()
	url := os.Getenv("OCMS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: OCMS_TEST_REDIS_URL not set")
	}
	cache, err := NewRedisCache(RedisOptions{URL: url, Prefix: prefix, DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	_ = cache.Clear(context.Background())
	return cache
}

func TestRedisCache_Basic(t *testing.T) {
	cache := newTestRedis(t, "ocms-deepl-test:")
	ctx := context.Background()

	if err := cache.Set(ctx, "pairs", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, "pairs")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get returned %q, want %q", got, "v")
	}

	if err := cache.Delete(ctx, "pairs"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cache.Get(ctx, "pairs"); err != ErrCacheMiss {
		t.Errorf("Get after Delete returned error %v, want ErrCacheMiss", err)
	}
	if s := cache.Stats(); s.Hits != 1 || s.Misses != 1 || s.Sets != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRedisCache_NoExpiry(t *testing.T) {
	cache := newTestRedis(t, "ocms-deepl-test:")
	ctx := context.Background()

	if err := cache.Set(ctx, "pairs", []byte("v"), NoExpiry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ttl, err := cache.client.TTL(ctx, "ocms-deepl-test:pairs").Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	// Redis reports -1 for keys without an expiry.
	if ttl != -1 {
		t.Errorf("TTL = %v, want no expiry", ttl)
	}
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	cache := newTestRedis(t, "ocms-deepl-test:")
	other := newTestRedis(t, "ocms-deepl-other:")
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"), 0)
	_ = cache.Set(ctx, "b", []byte("2"), 0)
	_ = other.Set(ctx, "keep", []byte("3"), 0)

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := cache.Get(ctx, "a"); err != ErrCacheMiss {
		t.Errorf("a should be cleared, got %v", err)
	}
	if _, err := other.Get(ctx, "keep"); err != nil {
		t.Errorf("keys of another prefix should survive Clear: %v", err)
	}
}

func TestRedisCache_PingAndClose(t *testing.T) {
	cache := newTestRedis(t, "ocms-deepl-test:")
	ctx := context.Background()

	if err := cache.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := cache.Get(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Get after Close = %v, want ErrCacheClosed", err)
	}
	if err := cache.Ping(ctx); err != ErrCacheClosed {
		t.Errorf("Ping after Close = %v, want ErrCacheClosed", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("second Close should succeed, got %v", err)
	}
}

func TestRedisCache_InvalidURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{URL: "not-a-url"}); err == nil {
		t.Error("expected error with invalid URL, got nil")
	}
}

func TestRedisCache_EmptyURL(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error with empty URL, got nil")
	}
}
