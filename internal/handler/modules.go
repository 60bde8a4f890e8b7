// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-deepl/internal/module"
)

// ModulesHandler handles module management routes.
type ModulesHandler struct {
	registry *module.Registry
	logger   *slog.Logger
}

// NewModulesHandler creates a new ModulesHandler.
func NewModulesHandler(registry *module.Registry, logger *slog.Logger) *ModulesHandler {
	return &ModulesHandler{registry: registry, logger: logger}
}

// ToggleActiveRequest is the body of POST /admin/modules/{name}/active.
type ToggleActiveRequest struct {
	Active bool `json:"active"`
}

// RegisterRoutes mounts the module routes on an admin router.
func (h *ModulesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/modules", h.List)
	r.Post("/modules/{name}/active", h.ToggleActive)
}

// List handles GET /admin/modules - lists registered modules.
func (h *ModulesHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, map[string]any{"modules": h.registry.ListInfo()})
}

// ToggleActive handles POST /admin/modules/{name}/active. Inactive modules
// answer 404 on their routes and their hook handlers are skipped.
func (h *ModulesHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.registry.Get(name); !ok {
		writeJSONError(w, http.StatusNotFound, "module not found")
		return
	}

	var req ToggleActiveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.SetActive(name, req.Active); err != nil {
		h.logger.Error("failed to change module status", "module", name, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to change module status")
		return
	}
	writeJSONSuccess(w, map[string]any{"module": name, "active": req.Active})
}
