// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/olegiv/ocms-deepl/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a test logger that only outputs errors.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with core migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "ocms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates an in-memory SQLite database without migrations.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	return db
}

// SiteFixture describes a site tree created by CreateSite.
type SiteFixture struct {
	Site   store.Site
	RootID int64
}

// CreateSite creates a root page and a site with the given locales. The
// first locale is the default language (id 0); the others get ids 1..n.
func CreateSite(t *testing.T, db *sql.DB, identifier string, locales ...string) SiteFixture {
	t.Helper()
	ctx := context.Background()
	q := store.New(db)

	root, err := q.CreatePage(ctx, store.CreatePageParams{Title: identifier})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	site, err := q.CreateSite(ctx, identifier, root.UID)
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	for i, locale := range locales {
		if err := q.CreateSiteLanguage(ctx, store.SiteLanguage{
			SiteID:     site.ID,
			LanguageID: int64(i),
			Title:      locale,
			Locale:     locale,
			Enabled:    true,
		}); err != nil {
			t.Fatalf("CreateSiteLanguage: %v", err)
		}
	}
	return SiteFixture{Site: site, RootID: root.UID}
}

// CreatePage inserts a page and fails the test on error.
func CreatePage(t *testing.T, db *sql.DB, arg store.CreatePageParams) store.Page {
	t.Helper()
	p, err := store.New(db).CreatePage(context.Background(), arg)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	return p
}
