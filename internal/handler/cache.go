// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-deepl/internal/cache"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	cache    cache.Cacher
	backend  cache.CacheBackend
	fallback bool
	logger   *slog.Logger
}

// NewCacheHandler creates a CacheHandler for the cache built at startup.
func NewCacheHandler(res *cache.CacheResult, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{
		cache:    res.Cache,
		backend:  res.BackendType,
		fallback: res.IsFallback,
		logger:   logger,
	}
}

// RegisterRoutes mounts the cache routes on an admin router.
func (h *CacheHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cache", h.Stats)
	r.Post("/cache/clear", h.Clear)
}

// Stats handles GET /admin/cache - reports backend, counters and health.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"backend":  h.backend,
		"fallback": h.fallback,
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		data["stats"] = sp.Stats()
	}
	if p, ok := h.cache.(cache.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			data["health_error"] = err.Error()
		}
	}
	writeJSONSuccess(w, data)
}

// Clear handles POST /admin/cache/clear - drops every cached entry, which
// also makes the next sync fetch the DeepL language pairs again.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear cache", "backend", h.backend, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	h.logger.Info("cache cleared", "backend", h.backend)
	writeJSONSuccess(w, nil)
}
