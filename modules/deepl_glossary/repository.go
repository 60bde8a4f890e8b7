// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/ocms-deepl/internal/deepl"
	"github.com/olegiv/ocms-deepl/internal/store"
)

// GlossaryModuleName marks pages that hold glossary records.
const GlossaryModuleName = "glossary"

// TermRecord is a glossary record reduced to its alignment id and term.
// For default-language records ID is the uid; for localizations it is the
// l10n_parent.
type TermRecord struct {
	ID   int64
	Term string
}

// Repository is the record store used by the factory and the service.
type Repository interface {
	GetPage(ctx context.Context, pageID int64) (store.Page, error)
	GetOriginalEntries(ctx context.Context, pageID int64) ([]TermRecord, error)
	GetLocalizedEntries(ctx context.Context, pageID, languageID int64) ([]TermRecord, error)
	GetGlossaryBySourceAndTargetForSync(ctx context.Context, sourceLang, targetLang string, page store.Page) (GlossaryRow, error)
	UpdateLocalGlossary(ctx context.Context, info *deepl.GlossaryInfo, uid int64) error
	SetLocalGlossaryReady(ctx context.Context, uid int64, ready bool) error
	ResetLocalGlossary(ctx context.Context, uid int64) error
	ListGlossaryFolders(ctx context.Context) ([]store.Page, error)
	ListLocalGlossaries(ctx context.Context, pageID int64) ([]GlossaryRow, error)
}

// SQLRepository implements Repository on the CMS database.
type SQLRepository struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

var _ Repository = (*SQLRepository)(nil)

// NewSQLRepository creates a repository on db.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, queries: store.New(db), now: time.Now}
}

// GetPage returns a page. Returns sql.ErrNoRows if it does not exist.
func (r *SQLRepository) GetPage(ctx context.Context, pageID int64) (store.Page, error) {
	return r.queries.GetPage(ctx, pageID)
}

// GetOriginalEntries returns the default-language records stored on a page, by uid.
func (r *SQLRepository) GetOriginalEntries(ctx context.Context, pageID int64) ([]TermRecord, error) {
	return r.termRecords(ctx,
		`SELECT uid, term FROM deepl_glossary_entries
		 WHERE pid = ? AND sys_language_uid = 0 AND deleted = 0
		 ORDER BY uid`, pageID)
}

// GetLocalizedEntries returns the records of one language on a page, keyed by l10n_parent.
func (r *SQLRepository) GetLocalizedEntries(ctx context.Context, pageID, languageID int64) ([]TermRecord, error) {
	// Newest translation first: the factory keeps the first record per parent.
	return r.termRecords(ctx,
		`SELECT l10n_parent, term FROM deepl_glossary_entries
		 WHERE pid = ? AND sys_language_uid = ? AND l10n_parent > 0 AND deleted = 0
		 ORDER BY l10n_parent, uid DESC`, pageID, languageID)
}

func (r *SQLRepository) termRecords(ctx context.Context, query string, args ...any) ([]TermRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying glossary entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []TermRecord
	for rows.Next() {
		var rec TermRecord
		if err := rows.Scan(&rec.ID, &rec.Term); err != nil {
			return nil, fmt.Errorf("scanning glossary entry: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const glossaryColumns = `uid, pid, glossary_id, glossary_name, glossary_ready, glossary_lastsync, source_lang, target_lang`

func scanGlossaryRow(row interface{ Scan(...any) error }) (GlossaryRow, error) {
	var g GlossaryRow
	err := row.Scan(&g.UID, &g.PID, &g.GlossaryID, &g.GlossaryName, &g.Ready, &g.LastSync, &g.SourceLang, &g.TargetLang)
	return g, err
}

// GetGlossaryBySourceAndTargetForSync returns the local glossary row of a
// page and language pair, creating it when missing.
func (r *SQLRepository) GetGlossaryBySourceAndTargetForSync(ctx context.Context, sourceLang, targetLang string, page store.Page) (GlossaryRow, error) {
	row, err := scanGlossaryRow(r.db.QueryRowContext(ctx,
		`SELECT `+glossaryColumns+` FROM deepl_glossaries
		 WHERE pid = ? AND source_lang = ? AND target_lang = ?`,
		page.UID, sourceLang, targetLang))
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return GlossaryRow{}, fmt.Errorf("loading glossary %s-%s of page %d: %w", sourceLang, targetLang, page.UID, err)
	}

	row, err = scanGlossaryRow(r.db.QueryRowContext(ctx,
		`INSERT INTO deepl_glossaries (pid, source_lang, target_lang)
		 VALUES (?, ?, ?)
		 RETURNING `+glossaryColumns,
		page.UID, sourceLang, targetLang))
	if err != nil {
		return GlossaryRow{}, fmt.Errorf("creating glossary %s-%s of page %d: %w", sourceLang, targetLang, page.UID, err)
	}
	return row, nil
}

// UpdateLocalGlossary stores the DeepL id, readiness and sync time on a row.
func (r *SQLRepository) UpdateLocalGlossary(ctx context.Context, info *deepl.GlossaryInfo, uid int64) error {
	synced := info.CreationTime
	if synced.IsZero() {
		synced = r.now()
	}
	ready := 0
	if info.Ready {
		ready = 1
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE deepl_glossaries
		 SET glossary_id = ?, glossary_ready = ?, glossary_lastsync = ?, updated_at = ?
		 WHERE uid = ?`,
		info.GlossaryID, ready, synced.Unix(), r.now(), uid)
	if err != nil {
		return fmt.Errorf("updating glossary %d: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

// SetLocalGlossaryReady stores the readiness DeepL reported for a row's
// glossary. The id and last sync time are kept.
func (r *SQLRepository) SetLocalGlossaryReady(ctx context.Context, uid int64, ready bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deepl_glossaries SET glossary_ready = ?, updated_at = ? WHERE uid = ?`,
		ready, r.now(), uid)
	if err != nil {
		return fmt.Errorf("updating readiness of glossary %d: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

// ResetLocalGlossary clears the DeepL id of a row.
func (r *SQLRepository) ResetLocalGlossary(ctx context.Context, uid int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deepl_glossaries
		 SET glossary_id = '', glossary_ready = 0, updated_at = ?
		 WHERE uid = ?`, r.now(), uid)
	if err != nil {
		return fmt.Errorf("resetting glossary %d: %w", uid, err)
	}
	return expectOneRow(res, uid)
}

func expectOneRow(res sql.Result, uid int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("glossary %d: %w", uid, sql.ErrNoRows)
	}
	return nil
}

// ListGlossaryFolders returns all glossary folder pages.
func (r *SQLRepository) ListGlossaryFolders(ctx context.Context) ([]store.Page, error) {
	pages, err := r.queries.ListPagesByModule(ctx, GlossaryModuleName, store.DoktypeSysFolder)
	if err != nil {
		return nil, fmt.Errorf("listing glossary folders: %w", err)
	}
	return pages, nil
}

// ListLocalGlossaries returns the glossary rows of a page, or of all pages
// when pageID is 0.
func (r *SQLRepository) ListLocalGlossaries(ctx context.Context, pageID int64) ([]GlossaryRow, error) {
	query := `SELECT ` + glossaryColumns + ` FROM deepl_glossaries`
	var args []any
	if pageID > 0 {
		query += ` WHERE pid = ?`
		args = append(args, pageID)
	}
	query += ` ORDER BY pid, uid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing local glossaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []GlossaryRow
	for rows.Next() {
		g, err := scanGlossaryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning local glossary: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// EntryParams holds the fields of a glossary record.
type EntryParams struct {
	PID            int64
	SysLanguageUID int64
	L10nParent     int64
	Term           string
	Description    string
}

// CreateEntry inserts a glossary record and returns its uid.
func (r *SQLRepository) CreateEntry(ctx context.Context, arg EntryParams) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO deepl_glossary_entries (pid, sys_language_uid, l10n_parent, term, description)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.PID, arg.SysLanguageUID, arg.L10nParent, arg.Term, arg.Description)
	if err != nil {
		return 0, fmt.Errorf("creating glossary entry: %w", err)
	}
	return res.LastInsertId()
}
