// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-deepl/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableCache is a cache whose backend is down.
type unreachableCache struct {
	cache.Cacher
}

func (unreachableCache) Ping(context.Context) error { return errors.New("connection refused") }

func cacheRouter(res *cache.CacheResult) http.Handler {
	r := chi.NewRouter()
	NewCacheHandler(res, testLogger()).RegisterRoutes(r)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestCacheStats(t *testing.T) {
	mc := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Hour})
	defer func() { _ = mc.Close() }()
	ctx := context.Background()

	_ = mc.Set(ctx, "pairs", []byte("x"), cache.NoExpiry)
	_, _ = mc.Get(ctx, "pairs")
	_, _ = mc.Get(ctx, "missing")

	h := cacheRouter(&cache.CacheResult{Cache: mc, BackendType: cache.CacheBackendMemory})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["backend"] != string(cache.CacheBackendMemory) {
		t.Errorf("backend = %v", body["backend"])
	}
	stats, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("stats missing: %v", body)
	}
	if stats["hits"] != float64(1) || stats["misses"] != float64(1) || stats["items"] != float64(1) {
		t.Errorf("stats = %v, want 1 hit, 1 miss, 1 item", stats)
	}
	if _, ok := body["health_error"]; ok {
		t.Errorf("unexpected health_error: %v", body["health_error"])
	}
}

func TestCacheStatsReportsHealthError(t *testing.T) {
	mc := cache.NewMemoryCache(cache.MemoryOptions{})
	defer func() { _ = mc.Close() }()

	h := cacheRouter(&cache.CacheResult{
		Cache:       unreachableCache{Cacher: mc},
		BackendType: cache.CacheBackendRedis,
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache", nil))

	body := decodeBody(t, rec)
	if body["health_error"] != "connection refused" {
		t.Errorf("health_error = %v, want %q", body["health_error"], "connection refused")
	}
	if _, ok := body["stats"]; ok {
		t.Errorf("stats reported for a cache without counters: %v", body["stats"])
	}
}

func TestCacheClear(t *testing.T) {
	mc := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Hour})
	defer func() { _ = mc.Close() }()
	ctx := context.Background()
	_ = mc.Set(ctx, "pairs", []byte("x"), cache.NoExpiry)

	h := cacheRouter(&cache.CacheResult{Cache: mc, BackendType: cache.CacheBackendMemory})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/clear", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if _, err := mc.Get(ctx, "pairs"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("Get after clear = %v, want ErrCacheMiss", err)
	}
	if n := mc.Stats().Items; n != 0 {
		t.Errorf("Items = %d, want 0", n)
	}
}

func TestCacheClearOnClosedCache(t *testing.T) {
	mc := cache.NewMemoryCache(cache.MemoryOptions{})
	_ = mc.Close()

	h := cacheRouter(&cache.CacheResult{Cache: mc, BackendType: cache.CacheBackendMemory})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/clear", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
