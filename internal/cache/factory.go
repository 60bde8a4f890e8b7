// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"net/url"
	"time"
)

// CacheBackend names a cache implementation.
type CacheBackend string

// Cache backends.
const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// CacheConfig holds configuration for cache creation.
type CacheConfig struct {
	// Type is the cache backend type: "memory" or "redis"
	Type CacheBackend

	// RedisURL is the Redis connection URL (only for redis type)
	RedisURL string

	// Prefix is the key prefix for Redis (only for redis type)
	Prefix string

	// FallbackToMemory uses a memory cache when Redis is unreachable.
	FallbackToMemory bool

	DefaultTTL      time.Duration
	MaxSize         int // Maximum entries for memory cache (0 = unlimited)
	CleanupInterval time.Duration
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Type:             CacheBackendMemory,
		FallbackToMemory: true,
		DefaultTTL:       time.Hour,
		MaxSize:          10000,
		CleanupInterval:  time.Minute,
	}
}

// CacheResult describes the cache that NewCacheWithInfo created.
type CacheResult struct {
	Cache       Cacher
	BackendType CacheBackend
	IsFallback  bool
	// FallbackErr is the Redis error that caused a fallback.
	FallbackErr error
}

// NewCache creates a cache based on the provided configuration.
func NewCache(cfg CacheConfig) (Cacher, error) {
	res, err := NewCacheWithInfo(cfg)
	if err != nil {
		return nil, err
	}
	return res.Cache, nil
}

// NewCacheWithInfo creates a cache and reports which backend is in use.
// A redis config falls back to memory only when FallbackToMemory is set.
func NewCacheWithInfo(cfg CacheConfig) (*CacheResult, error) {
	if cfg.Type == CacheBackendRedis {
		rc, err := NewRedisCache(RedisOptions{URL: cfg.RedisURL, Prefix: cfg.Prefix, DefaultTTL: cfg.DefaultTTL})
		if err == nil {
			return &CacheResult{Cache: rc, BackendType: CacheBackendRedis}, nil
		}
		if !cfg.FallbackToMemory {
			return nil, fmt.Errorf("connecting to redis at %s: %w", SanitizeRedisURL(cfg.RedisURL), err)
		}
		return &CacheResult{
			Cache:       newMemoryFromConfig(cfg),
			BackendType: CacheBackendMemory,
			IsFallback:  true,
			FallbackErr: err,
		}, nil
	}

	return &CacheResult{Cache: newMemoryFromConfig(cfg), BackendType: CacheBackendMemory}, nil
}

func newMemoryFromConfig(cfg CacheConfig) *MemoryCache {
	return NewMemoryCache(MemoryOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL masks the password of a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
