// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the byte-oriented cache backends used for DeepL
// metadata, with an in-memory implementation and a Redis implementation for
// multi-instance deployments.
package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// NoExpiry keeps an entry until it is deleted or the cache is cleared.
const NoExpiry time.Duration = -1

// Cacher defines the interface for cache implementations.
// All implementations must be thread-safe.
type Cacher interface {
	// Get returns ErrCacheMiss for unknown and expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A ttl of 0 uses the backend's default TTL,
	// NoExpiry stores the value without a deadline.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	Close() error
}

// StatsProvider is implemented by caches that count their traffic.
type StatsProvider interface {
	Stats() Stats
}

// Pinger is implemented by caches backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stats is a snapshot of a cache's counters. Items and SizeBytes are only
// known to the in-memory backend.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Sets      int64   `json:"sets"`
	Items     int     `json:"items"`
	HitRate   float64 `json:"hit_rate"`
	SizeBytes int64   `json:"size_bytes,omitempty"`
}

// counters tracks lookups for both backends.
type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

func (c *counters) snapshot() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Sets: c.sets.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// resolveTTL maps a Set ttl onto a concrete duration; NoExpiry is kept.
func resolveTTL(ttl, defaultTTL time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return defaultTTL
	case ttl < 0:
		return NoExpiry
	}
	return ttl
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
