// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryOptions configures a MemoryCache.
type MemoryOptions struct {
	DefaultTTL      time.Duration // 0 means one hour
	MaxSize         int           // entry limit, 0 = unlimited
	CleanupInterval time.Duration // 0 disables the sweeper
}

// MemoryCache keeps entries in process memory. It is the default backend and
// the fallback when Redis is unreachable.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	bytes   int64

	defaultTTL time.Duration
	maxSize    int
	counters   counters

	done   chan struct{}
	closed atomic.Bool
}

// memoryEntry holds a private copy of a value. A zero deadline never expires.
type memoryEntry struct {
	value    []byte
	deadline time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// NewMemoryCache creates a memory cache and starts its sweeper when a
// cleanup interval is set.
func NewMemoryCache(opts MemoryOptions) *MemoryCache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	c := &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		done:       make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.sweep(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache creates an unbounded memory cache swept every minute.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryOptions{DefaultTTL: ttl, CleanupInterval: time.Minute})
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		if ok {
			c.mu.Lock()
			// Another writer may have refreshed the key in the meantime.
			if cur, still := c.entries[key]; still && cur.expired(time.Now()) {
				c.dropLocked(key)
			}
			c.mu.Unlock()
		}
		c.counters.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.counters.hits.Add(1)
	return append([]byte(nil), entry.value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl = resolveTTL(ttl, c.defaultTTL); ttl != NoExpiry {
		entry.deadline = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.dropLocked(key)
	} else if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.makeRoomLocked()
	}
	c.entries[key] = entry
	c.bytes += int64(len(entry.value))
	c.counters.sets.Add(1)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	c.dropLocked(key)
	c.mu.Unlock()
	return nil
}

// Clear drops every entry. Counters are kept.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.bytes = 0
	c.mu.Unlock()
	return nil
}

// Close stops the sweeper. Further calls return ErrCacheClosed.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
	return nil
}

func (c *MemoryCache) Stats() Stats {
	s := c.counters.snapshot()
	c.mu.RLock()
	s.Items = len(c.entries)
	s.SizeBytes = c.bytes
	c.mu.RUnlock()
	return s
}

func (c *MemoryCache) dropLocked(key string) {
	if entry, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.bytes -= int64(len(entry.value))
	}
}

// makeRoomLocked drops expired entries, then the entry with the earliest
// deadline. Entries without a deadline go last.
func (c *MemoryCache) makeRoomLocked() {
	now := time.Now()
	var victim string
	var victimEntry memoryEntry
	for key, entry := range c.entries {
		if entry.expired(now) {
			c.dropLocked(key)
			continue
		}
		switch {
		case victim == "":
		case victimEntry.deadline.IsZero() && !entry.deadline.IsZero():
		case !entry.deadline.IsZero() && entry.deadline.Before(victimEntry.deadline):
		default:
			continue
		}
		victim, victimEntry = key, entry
	}
	if len(c.entries) >= c.maxSize && victim != "" {
		c.dropLocked(victim)
	}
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if entry.expired(now) {
					c.dropLocked(key)
				}
			}
			c.mu.Unlock()
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
