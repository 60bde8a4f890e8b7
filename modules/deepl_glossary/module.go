// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package deepl_glossary synchronises glossary records of glossary folder
// pages with DeepL glossaries.
package deepl_glossary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-deepl/internal/cache"
	"github.com/olegiv/ocms-deepl/internal/deepl"
	"github.com/olegiv/ocms-deepl/internal/module"
	"github.com/olegiv/ocms-deepl/internal/site"
	"github.com/olegiv/ocms-deepl/internal/store"
)

// ModuleName is the registry name of the module.
const ModuleName = "deepl_glossary"

// LocalizationTable is the pseudo table localization commands are checked against.
const LocalizationTable = "localization"

const syncJobTimeout = 30 * time.Minute

// Module implements the DeepL glossary module.
type Module struct {
	module.BaseModule
	ctx       *module.Context
	client    deepl.Client
	userAgent string
	repo      *SQLRepository
	pairs     *LanguagePairsListProvider
	service   *GlossaryService
	cron      *cron.Cron
	ownCache  cache.Cacher
	autoSync  bool
}

// Option configures a Module.
type Option func(*Module)

// WithClient makes the module use client instead of an HTTP client built from config.
func WithClient(client deepl.Client) Option {
	return func(m *Module) { m.client = client }
}

// WithUserAgent sets the User-Agent of the DeepL HTTP client.
func WithUserAgent(userAgent string) Option {
	return func(m *Module) { m.userAgent = userAgent }
}

// New creates a new DeepL glossary module.
func New(opts ...Option) *Module {
	m := &Module{
		BaseModule: module.NewBaseModule(
			ModuleName,
			"1.0.0",
			"Synchronises glossary folders with DeepL glossaries",
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init initializes the module.
func (m *Module) Init(ctx *module.Context) error {
	m.ctx = ctx

	if m.client == nil {
		client, err := m.newHTTPClient()
		if err != nil {
			return err
		}
		m.client = client
	}

	queries := ctx.Store
	if queries == nil {
		queries = store.New(ctx.DB)
	}

	backend := ctx.Cache
	if backend == nil {
		m.ownCache = cache.NewSimpleMemoryCache(0)
		backend = m.ownCache
	}

	m.repo = NewSQLRepository(ctx.DB)
	m.pairs = NewLanguagePairsListProvider(cache.NewTypedCache[PairMapping](backend, cache.NoExpiry), m.client, ctx.Logger)
	factory := NewGlossaryFactory(m.repo, site.NewResolver(queries), m.pairs)
	m.service = NewGlossaryService(m.client, m.repo, factory, ctx.Logger)

	if ctx.Config != nil {
		m.autoSync = ctx.Config.GlossaryAutoSync
	}

	m.registerHooks()

	if ctx.Config != nil && ctx.Config.GlossarySyncEnabled() {
		if err := m.startScheduler(ctx.Config.GlossarySyncSchedule); err != nil {
			return err
		}
	}

	ctx.Logger.Info("DeepL glossary module initialized", "auto_sync", m.autoSync, "scheduled", m.cron != nil)
	return nil
}

func (m *Module) newHTTPClient() (*deepl.HTTPClient, error) {
	cfg := m.ctx.Config
	if cfg == nil {
		return nil, fmt.Errorf("deepl_glossary: config is required without a client")
	}
	client, err := deepl.NewClient(deepl.Options{
		AuthKey:    cfg.DeepLAuthKey,
		BaseURL:    cfg.DeepLBaseURL(),
		Timeout:    cfg.DeepLRequestTimeout(),
		RateLimit:  cfg.DeepLRateLimit,
		MaxRetries: cfg.DeepLMaxRetries,
		UserAgent:  m.userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("deepl_glossary: %w", err)
	}
	return client, nil
}

// Shutdown stops the scheduler.
func (m *Module) Shutdown() error {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	if m.ownCache != nil {
		_ = m.ownCache.Close()
	}
	if m.ctx != nil {
		m.ctx.Logger.Info("DeepL glossary module shutting down")
	}
	return nil
}

// Service returns the glossary service. Nil before Init.
func (m *Module) Service() *GlossaryService { return m.service }

// SyncPage syncs one glossary folder and fires HookGlossaryAfterSync on success.
func (m *Module) SyncPage(ctx context.Context, pageID int64) (*SyncReport, error) {
	report, err := m.service.SyncGlossaries(ctx, pageID)
	if err != nil {
		return report, err
	}
	m.afterSync(ctx, report)
	return report, nil
}

// SyncAll syncs every glossary folder and fires HookGlossaryAfterSync per synced page.
func (m *Module) SyncAll(ctx context.Context) ([]*SyncReport, error) {
	reports, err := m.service.SyncAll(ctx)
	for _, report := range reports {
		m.afterSync(ctx, report)
	}
	return reports, err
}

// SaveEntry stores a glossary record on a glossary folder and fires
// HookPageAfterSave for the folder, which triggers auto-sync when enabled.
// Translations need modify access to LocalizationTable and a
// default-language parent on the same folder.
func (m *Module) SaveEntry(ctx context.Context, arg EntryParams) (int64, error) {
	if normalizeTerm(arg.Term) == "" {
		return 0, fmt.Errorf("%w: term is empty", ErrInvalidEntry)
	}
	if arg.SysLanguageUID < 0 {
		return 0, fmt.Errorf("%w: language %d", ErrInvalidEntry, arg.SysLanguageUID)
	}

	page, err := m.repo.GetPage(ctx, arg.PID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: page %d not found", ErrInvalidGlossaryPage, arg.PID)
	}
	if err != nil {
		return 0, fmt.Errorf("loading page %d: %w", arg.PID, err)
	}
	if !IsGlossaryFolder(page) {
		return 0, fmt.Errorf("%w: page %d", ErrInvalidGlossaryPage, arg.PID)
	}

	if arg.SysLanguageUID == 0 {
		arg.L10nParent = 0
	} else if err := m.checkTranslation(ctx, arg); err != nil {
		return 0, err
	}

	uid, err := m.repo.CreateEntry(ctx, arg)
	if err != nil {
		return 0, err
	}
	m.ctx.Logger.Info("glossary entry saved", "uid", uid, "page_id", page.UID, "language_id", arg.SysLanguageUID)

	if m.ctx.Hooks != nil {
		saved := &module.PageSaved{PageID: page.UID, Module: page.Module}
		if err := m.ctx.Hooks.CallNoResult(ctx, module.HookPageAfterSave, saved); err != nil {
			m.ctx.Logger.Warn("page after_save hook failed", "page_id", page.UID, "error", err)
		}
	}
	return uid, nil
}

// checkTranslation asks the access hook for LocalizationTable and verifies
// the parent record of a translation.
func (m *Module) checkTranslation(ctx context.Context, arg EntryParams) error {
	if m.ctx.Hooks == nil {
		return fmt.Errorf("%w: %s", ErrAccessDenied, LocalizationTable)
	}
	allowed, err := m.ctx.Hooks.CheckModifyAccess(ctx, LocalizationTable)
	if err != nil {
		return fmt.Errorf("checking %s access: %w", LocalizationTable, err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, LocalizationTable)
	}

	originals, err := m.repo.GetOriginalEntries(ctx, arg.PID)
	if err != nil {
		return err
	}
	for _, rec := range originals {
		if rec.ID == arg.L10nParent {
			return nil
		}
	}
	return fmt.Errorf("%w: parent record %d not found on page %d", ErrInvalidEntry, arg.L10nParent, arg.PID)
}

func (m *Module) afterSync(ctx context.Context, report *SyncReport) {
	if m.ctx.Hooks == nil || report == nil {
		return
	}
	if err := m.ctx.Hooks.CallNoResult(ctx, module.HookGlossaryAfterSync, report); err != nil {
		m.ctx.Logger.Warn("glossary after_sync hook failed", "page_id", report.PageID, "error", err)
	}
}

// startScheduler runs SyncAll on schedule. Runs never overlap.
func (m *Module) startScheduler(schedule string) error {
	logger := cronLogger{m.ctx.Logger}
	m.cron = cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	_, err := m.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncJobTimeout)
		defer cancel()
		if _, err := m.SyncAll(ctx); err != nil {
			m.ctx.Logger.Error("scheduled glossary sync failed", "error", err)
		}
	})
	if err != nil {
		m.cron = nil
		return fmt.Errorf("scheduling glossary sync %q: %w", schedule, err)
	}

	m.cron.Start()
	m.ctx.Logger.Info("glossary sync scheduled", "schedule", schedule)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// registerHooks registers hook handlers for the module.
func (m *Module) registerHooks() {
	if m.ctx.Hooks == nil {
		return
	}

	m.ctx.Hooks.RegisterFunc(module.HookDataHandlerCheckModifyAccess, "deepl_glossary_localization_access", m.Name(),
		func(ctx context.Context, data any) (any, error) {
			if check, ok := data.(*module.AccessCheck); ok && check.Table == LocalizationTable {
				check.Allowed = true
			}
			return data, nil
		})

	m.ctx.Hooks.Register(module.HookPageAfterSave, module.HookHandler{
		Name:     "deepl_glossary_auto_sync",
		Module:   m.Name(),
		Priority: 50,
		Fn: func(ctx context.Context, data any) (any, error) {
			saved, ok := data.(*module.PageSaved)
			if !ok || !m.autoSync || saved.Module != GlossaryModuleName {
				return data, nil
			}
			page, err := m.repo.GetPage(ctx, saved.PageID)
			if err != nil || !IsGlossaryFolder(page) {
				return data, nil
			}
			if _, err := m.SyncPage(ctx, saved.PageID); err != nil {
				m.ctx.Logger.Error("glossary auto sync failed", "page_id", saved.PageID, "error", err)
			}
			return data, nil
		},
	})
}

// Migrations returns database migrations for the module.
func (m *Module) Migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "Create deepl_glossary_entries table",
			Up: func(db *sql.DB) error {
				_, err := db.Exec(`
					CREATE TABLE IF NOT EXISTS deepl_glossary_entries (
						uid INTEGER PRIMARY KEY AUTOINCREMENT,
						pid INTEGER NOT NULL,
						sys_language_uid INTEGER NOT NULL DEFAULT 0,
						l10n_parent INTEGER NOT NULL DEFAULT 0,
						term TEXT NOT NULL DEFAULT '',
						description TEXT NOT NULL DEFAULT '',
						deleted INTEGER NOT NULL DEFAULT 0,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					);
					CREATE INDEX IF NOT EXISTS idx_deepl_glossary_entries_pid
						ON deepl_glossary_entries(pid, sys_language_uid);
				`)
				return err
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec(`DROP TABLE IF EXISTS deepl_glossary_entries`)
				return err
			},
		},
		{
			Version:     2,
			Description: "Create deepl_glossaries table",
			Up: func(db *sql.DB) error {
				_, err := db.Exec(`
					CREATE TABLE IF NOT EXISTS deepl_glossaries (
						uid INTEGER PRIMARY KEY AUTOINCREMENT,
						pid INTEGER NOT NULL,
						glossary_id TEXT NOT NULL DEFAULT '',
						glossary_name TEXT NOT NULL DEFAULT '',
						glossary_ready INTEGER NOT NULL DEFAULT 0,
						glossary_lastsync INTEGER NOT NULL DEFAULT 0,
						source_lang TEXT NOT NULL,
						target_lang TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						UNIQUE (pid, source_lang, target_lang)
					)
				`)
				return err
			},
			Down: func(db *sql.DB) error {
				_, err := db.Exec(`DROP TABLE IF EXISTS deepl_glossaries`)
				return err
			},
		},
	}
}
