// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package site resolves the site a page belongs to and the languages that
// site is configured with.
package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/olegiv/ocms-deepl/internal/store"
)

// maxTreeDepth bounds the pid walk so a corrupt tree cannot loop forever.
const maxTreeDepth = 64

var (
	// ErrSiteNotFound is returned when no site root is found above a page.
	ErrSiteNotFound = errors.New("site not found for page")
	// ErrLanguageNotFound is returned when a language id is not configured for a site.
	ErrLanguageNotFound = errors.New("language not configured for site")
)

// Resolver looks up sites and languages for pages.
type Resolver struct {
	queries *store.Queries
}

// NewResolver creates a Resolver over the core store.
func NewResolver(queries *store.Queries) *Resolver {
	return &Resolver{queries: queries}
}

// SiteForPage walks up the page tree until it reaches a site root.
func (r *Resolver) SiteForPage(ctx context.Context, pageID int64) (store.Site, error) {
	current := pageID
	for depth := 0; depth < maxTreeDepth; depth++ {
		s, err := r.queries.GetSiteByRootPage(ctx, current)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return store.Site{}, fmt.Errorf("loading site for root %d: %w", current, err)
		}

		page, err := r.queries.GetPage(ctx, current)
		if errors.Is(err, sql.ErrNoRows) {
			return store.Site{}, fmt.Errorf("%w: page %d", ErrSiteNotFound, pageID)
		}
		if err != nil {
			return store.Site{}, fmt.Errorf("loading page %d: %w", current, err)
		}
		if page.PID == 0 {
			return store.Site{}, fmt.Errorf("%w: page %d", ErrSiteNotFound, pageID)
		}
		current = page.PID
	}
	return store.Site{}, fmt.Errorf("%w: page %d exceeds tree depth", ErrSiteNotFound, pageID)
}

// DefaultLanguageCode returns the two-letter code of the site's default language.
func (r *Resolver) DefaultLanguageCode(ctx context.Context, pageID int64) (string, error) {
	return r.LanguageCodeFor(ctx, pageID, 0)
}

// LanguageCodeFor returns the two-letter code of languageID on the page's site.
func (r *Resolver) LanguageCodeFor(ctx context.Context, pageID, languageID int64) (string, error) {
	langs, err := r.siteLanguages(ctx, pageID)
	if err != nil {
		return "", err
	}
	for _, l := range langs {
		if l.LanguageID == languageID {
			return LanguageCode(l.Locale)
		}
	}
	return "", fmt.Errorf("%w: language %d on page %d", ErrLanguageNotFound, languageID, pageID)
}

// AvailableLocalizationIDs returns the ids of enabled site languages for
// which the page has a translation record.
func (r *Resolver) AvailableLocalizationIDs(ctx context.Context, pageID int64) ([]int64, error) {
	langs, err := r.siteLanguages(ctx, pageID)
	if err != nil {
		return nil, err
	}
	enabled := make(map[int64]bool, len(langs))
	for _, l := range langs {
		if l.Enabled && l.LanguageID > 0 {
			enabled[l.LanguageID] = true
		}
	}

	translated, err := r.queries.ListPageTranslationLanguages(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing translations of page %d: %w", pageID, err)
	}

	ids := make([]int64, 0, len(translated))
	for _, id := range translated {
		if enabled[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *Resolver) siteLanguages(ctx context.Context, pageID int64) ([]store.SiteLanguage, error) {
	s, err := r.SiteForPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	langs, err := r.queries.ListSiteLanguages(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("listing languages of site %s: %w", s.Identifier, err)
	}
	return langs, nil
}

// LanguageCode converts a locale such as "de_DE.UTF-8" or "en-US" to its
// lower-case base language code.
func LanguageCode(locale string) (string, error) {
	tag := strings.TrimSpace(locale)
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "_", "-")

	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	base, _ := parsed.Base()
	return strings.ToLower(base.String()), nil
}
