// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-deepl/internal/deepl"
)

// RegisterAdminRoutes registers admin routes for the module.
func (m *Module) RegisterAdminRoutes(r chi.Router) {
	r.Route("/deepl", func(r chi.Router) {
		r.Get("/glossaries", m.handleListGlossaries)
		r.Post("/glossaries/sync", m.handleSyncAll)
		r.Post("/glossaries/sync/{pageID}", m.handleSyncPage)
		r.Post("/glossaries/cleanup", m.handleCleanup)
		r.Get("/glossaries/{id}", m.handleGetGlossary)
		r.Get("/glossaries/{id}/entries", m.handleGetGlossaryEntries)
		r.Delete("/glossaries/{id}", m.handleDeleteGlossary)
		r.Get("/language-pairs", m.handleLanguagePairs)
		r.Post("/language-pairs/refresh", m.handleRefreshLanguagePairs)
		r.Get("/pages/{pageID}/glossaries", m.handlePageGlossaries)
		r.Post("/pages/{pageID}/entries", m.handleCreateEntry)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps module and client errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *deepl.APIError
	switch {
	case errors.Is(err, ErrInvalidGlossaryPage), errors.Is(err, deepl.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, deepl.ErrInvalidGlossaryID), errors.Is(err, ErrEntriesRequired), errors.Is(err, ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrGlossaryCreationFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (m *Module) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		m.ctx.Logger.Error("deepl glossary request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func parsePageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pageID"), 10, 64)
	return id, err == nil && id > 0
}

// handleListGlossaries lists the glossaries stored at DeepL.
func (m *Module) handleListGlossaries(w http.ResponseWriter, r *http.Request) {
	list, err := m.service.ListGlossaries(r.Context())
	if err != nil {
		m.fail(w, r, err)
		return
	}
	if list == nil {
		list = []deepl.GlossaryInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"glossaries": list})
}

func (m *Module) handleGetGlossary(w http.ResponseWriter, r *http.Request) {
	info, err := m.service.GlossaryInformation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.fail(w, r, err)
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "glossary not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (m *Module) handleGetGlossaryEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := m.service.GlossaryEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.fail(w, r, err)
		return
	}
	if entries == nil {
		writeError(w, http.StatusNotFound, "glossary not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (m *Module) handleDeleteGlossary(w http.ResponseWriter, r *http.Request) {
	if err := m.service.DeleteGlossary(r.Context(), chi.URLParam(r, "id")); err != nil {
		m.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSyncPage syncs the glossaries of one glossary folder.
func (m *Module) handleSyncPage(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parsePageID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	report, err := m.SyncPage(r.Context(), pageID)
	if err != nil {
		m.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (m *Module) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	reports, err := m.SyncAll(r.Context())
	resp := map[string]any{"reports": reports}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *Module) handleCleanup(w http.ResponseWriter, r *http.Request) {
	count, err := m.service.Cleanup(r.Context())
	resp := map[string]any{"removed": count}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(w, http.StatusMultiStatus, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *Module) handleLanguagePairs(w http.ResponseWriter, r *http.Request) {
	mapping, err := m.pairs.SupportedPairs(r.Context())
	if err != nil {
		m.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": mapping})
}

func (m *Module) handleRefreshLanguagePairs(w http.ResponseWriter, r *http.Request) {
	if err := m.pairs.Invalidate(r.Context()); err != nil {
		m.fail(w, r, err)
		return
	}
	m.handleLanguagePairs(w, r)
}

// handlePageGlossaries lists the local glossary rows of a page.
func (m *Module) handlePageGlossaries(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parsePageID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	rows, err := m.repo.ListLocalGlossaries(r.Context(), pageID)
	if err != nil {
		m.fail(w, r, err)
		return
	}

	glossaries := make([]deepl.GlossaryInfo, 0, len(rows))
	for _, row := range rows {
		glossaries = append(glossaries, NewGlossaryFromRow(row).Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{"page_id": pageID, "glossaries": glossaries})
}

// entryRequest is the body of POST /deepl/pages/{pageID}/entries.
type entryRequest struct {
	LanguageID  int64  `json:"sys_language_uid"`
	L10nParent  int64  `json:"l10n_parent"`
	Term        string `json:"term"`
	Description string `json:"description"`
}

// handleCreateEntry stores a glossary record on a glossary folder.
func (m *Module) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parsePageID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid page id")
		return
	}
	var req entryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	uid, err := m.SaveEntry(r.Context(), EntryParams{
		PID:            pageID,
		SysLanguageUID: req.LanguageID,
		L10nParent:     req.L10nParent,
		Term:           req.Term,
		Description:    req.Description,
	})
	if err != nil {
		m.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"uid": uid, "page_id": pageID})
}
