// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle with typed record access.
type Queries struct {
	db DBTX
}

// New creates a Queries instance on top of db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Page doktypes.
const (
	DoktypeDefault   = 1
	DoktypeSysFolder = 254
)

// Page is a record of the pages table. Translations of a page carry the
// language id in SysLanguageUID and the default-language uid in L10nParent.
type Page struct {
	UID            int64
	PID            int64
	Title          string
	Doktype        int64
	Module         string
	SysLanguageUID int64
	L10nParent     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const pageColumns = `uid, pid, title, doktype, module, sys_language_uid, l10n_parent, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var p Page
	err := row.Scan(&p.UID, &p.PID, &p.Title, &p.Doktype, &p.Module, &p.SysLanguageUID, &p.L10nParent, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPage returns a non-deleted page by uid. Returns sql.ErrNoRows if missing.
func (q *Queries) GetPage(ctx context.Context, uid int64) (Page, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE uid = ? AND deleted = 0`, uid)
	return scanPage(row)
}

// ListPagesByModule returns default-language pages with the given module and doktype.
func (q *Queries) ListPagesByModule(ctx context.Context, module string, doktype int64) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE module = ? AND doktype = ? AND sys_language_uid = 0 AND deleted = 0
		 ORDER BY uid`, module, doktype)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListPageTranslationLanguages returns the language ids of existing translations of a page.
func (q *Queries) ListPageTranslationLanguages(ctx context.Context, pageID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT sys_language_uid FROM pages
		 WHERE l10n_parent = ? AND sys_language_uid > 0 AND deleted = 0
		 ORDER BY sys_language_uid`, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreatePageParams holds the fields for CreatePage.
type CreatePageParams struct {
	PID            int64
	Title          string
	Doktype        int64
	Module         string
	SysLanguageUID int64
	L10nParent     int64
}

// CreatePage inserts a page and returns it.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	doktype := arg.Doktype
	if doktype == 0 {
		doktype = DoktypeDefault
	}
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO pages (pid, title, doktype, module, sys_language_uid, l10n_parent)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+pageColumns,
		arg.PID, arg.Title, doktype, arg.Module, arg.SysLanguageUID, arg.L10nParent)
	return scanPage(row)
}

// Site maps a page tree root to a set of languages.
type Site struct {
	ID         int64
	Identifier string
	RootPageID int64
}

// SiteLanguage is a language configured for a site. Language 0 is the default.
type SiteLanguage struct {
	SiteID     int64
	LanguageID int64
	Title      string
	Locale     string
	Enabled    bool
}

// GetSiteByRootPage returns the site whose root is pageID. Returns sql.ErrNoRows if none.
func (q *Queries) GetSiteByRootPage(ctx context.Context, pageID int64) (Site, error) {
	var s Site
	err := q.db.QueryRowContext(ctx,
		`SELECT id, identifier, root_page_id FROM sites WHERE root_page_id = ?`, pageID,
	).Scan(&s.ID, &s.Identifier, &s.RootPageID)
	return s, err
}

// CreateSite inserts a site.
func (q *Queries) CreateSite(ctx context.Context, identifier string, rootPageID int64) (Site, error) {
	s := Site{Identifier: identifier, RootPageID: rootPageID}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO sites (identifier, root_page_id) VALUES (?, ?)`, identifier, rootPageID)
	if err != nil {
		return Site{}, err
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

// ListSiteLanguages returns all languages of a site ordered by language id.
func (q *Queries) ListSiteLanguages(ctx context.Context, siteID int64) ([]SiteLanguage, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT site_id, language_id, title, locale, enabled FROM site_languages
		 WHERE site_id = ? ORDER BY language_id`, siteID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var langs []SiteLanguage
	for rows.Next() {
		var l SiteLanguage
		var enabled int64
		if err := rows.Scan(&l.SiteID, &l.LanguageID, &l.Title, &l.Locale, &enabled); err != nil {
			return nil, err
		}
		l.Enabled = enabled == 1
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// CreateSiteLanguage inserts or replaces a site language.
func (q *Queries) CreateSiteLanguage(ctx context.Context, l SiteLanguage) error {
	enabled := 0
	if l.Enabled {
		enabled = 1
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO site_languages (site_id, language_id, title, locale, enabled)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(site_id, language_id) DO UPDATE SET
			title = excluded.title,
			locale = excluded.locale,
			enabled = excluded.enabled`,
		l.SiteID, l.LanguageID, l.Title, l.Locale, enabled)
	return err
}
