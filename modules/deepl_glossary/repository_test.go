// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/ocms-deepl/internal/deepl"
	"github.com/olegiv/ocms-deepl/internal/store"
	"github.com/olegiv/ocms-deepl/internal/testutil"
)

func TestRepositoryEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addTerm(t, "Apfel")
	b := f.addTerm(t, "Birne")
	f.translate(t, b, langEN, "Pear")
	f.translate(t, a, langEN, "Apple")
	f.translate(t, a, langFR, "Pomme")

	if _, err := f.db.Exec(`UPDATE deepl_glossary_entries SET deleted = 1 WHERE term = 'Pomme'`); err != nil {
		t.Fatalf("marking deleted: %v", err)
	}

	original, err := f.repo.GetOriginalEntries(ctx, f.page.UID)
	if err != nil {
		t.Fatalf("GetOriginalEntries: %v", err)
	}
	if len(original) != 2 || original[0].ID != a || original[1].ID != b {
		t.Errorf("original = %+v, want records %d and %d", original, a, b)
	}

	english, err := f.repo.GetLocalizedEntries(ctx, f.page.UID, langEN)
	if err != nil {
		t.Fatalf("GetLocalizedEntries: %v", err)
	}
	if len(english) != 2 || english[0].ID != a || english[0].Term != "Apple" || english[1].ID != b {
		t.Errorf("english = %+v, want keyed by parent uid", english)
	}

	french, err := f.repo.GetLocalizedEntries(ctx, f.page.UID, langFR)
	if err != nil {
		t.Fatalf("GetLocalizedEntries: %v", err)
	}
	if len(french) != 0 {
		t.Errorf("french = %+v, want deleted record excluded", french)
	}
}

func TestRepositoryGlossaryRowLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return now }

	row, err := f.repo.GetGlossaryBySourceAndTargetForSync(ctx, "de", "en", f.page)
	if err != nil {
		t.Fatalf("GetGlossaryBySourceAndTargetForSync: %v", err)
	}
	if row.UID == 0 || row.PID != f.page.UID || row.GlossaryID != "" || row.Ready != 0 {
		t.Errorf("new row = %+v", row)
	}

	again, err := f.repo.GetGlossaryBySourceAndTargetForSync(ctx, "de", "en", f.page)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if again.UID != row.UID {
		t.Errorf("second lookup uid = %d, want %d", again.UID, row.UID)
	}

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	if err := f.repo.UpdateLocalGlossary(ctx, &deepl.GlossaryInfo{GlossaryID: "g-1", Ready: true, CreationTime: created}, row.UID); err != nil {
		t.Fatalf("UpdateLocalGlossary: %v", err)
	}

	rows, err := f.repo.ListLocalGlossaries(ctx, f.page.UID)
	if err != nil {
		t.Fatalf("ListLocalGlossaries: %v", err)
	}
	if len(rows) != 1 || rows[0].GlossaryID != "g-1" || rows[0].Ready != 1 || rows[0].LastSync != created.Unix() {
		t.Errorf("rows after update = %+v", rows)
	}

	if err := f.repo.UpdateLocalGlossary(ctx, &deepl.GlossaryInfo{GlossaryID: "g-2"}, row.UID); err != nil {
		t.Fatalf("UpdateLocalGlossary without creation time: %v", err)
	}
	rows, _ = f.repo.ListLocalGlossaries(ctx, 0)
	if rows[0].LastSync != now.Unix() || rows[0].Ready != 0 {
		t.Errorf("row = %+v, want last sync from clock", rows[0])
	}

	if err := f.repo.ResetLocalGlossary(ctx, row.UID); err != nil {
		t.Fatalf("ResetLocalGlossary: %v", err)
	}
	rows, _ = f.repo.ListLocalGlossaries(ctx, f.page.UID)
	if rows[0].GlossaryID != "" || rows[0].Ready != 0 {
		t.Errorf("row after reset = %+v", rows[0])
	}
}

func TestRepositoryLocalizedEntriesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	haus := f.addTerm(t, "Haus")
	f.translate(t, haus, langEN, "House")
	f.translate(t, haus, langEN, "Home")

	english, err := f.repo.GetLocalizedEntries(ctx, f.page.UID, langEN)
	if err != nil {
		t.Fatalf("GetLocalizedEntries: %v", err)
	}
	if len(english) != 2 || english[0].Term != "Home" || english[1].Term != "House" {
		t.Errorf("english = %+v, want the newest translation first", english)
	}
}

func TestRepositorySetLocalGlossaryReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row, err := f.repo.GetGlossaryBySourceAndTargetForSync(ctx, "de", "en", f.page)
	if err != nil {
		t.Fatalf("GetGlossaryBySourceAndTargetForSync: %v", err)
	}
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	if err := f.repo.UpdateLocalGlossary(ctx, &deepl.GlossaryInfo{GlossaryID: "g-1", CreationTime: created}, row.UID); err != nil {
		t.Fatalf("UpdateLocalGlossary: %v", err)
	}

	if err := f.repo.SetLocalGlossaryReady(ctx, row.UID, true); err != nil {
		t.Fatalf("SetLocalGlossaryReady: %v", err)
	}
	rows, _ := f.repo.ListLocalGlossaries(ctx, f.page.UID)
	if len(rows) != 1 || rows[0].Ready != 1 || rows[0].GlossaryID != "g-1" || rows[0].LastSync != created.Unix() {
		t.Errorf("row = %+v, want ready with id and sync time kept", rows)
	}

	if err := f.repo.SetLocalGlossaryReady(ctx, 404, true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("SetLocalGlossaryReady err = %v, want sql.ErrNoRows", err)
	}
}

func TestRepositoryUpdateMissingRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.repo.UpdateLocalGlossary(ctx, &deepl.GlossaryInfo{GlossaryID: "x"}, 404)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateLocalGlossary err = %v, want sql.ErrNoRows", err)
	}
	if err := f.repo.ResetLocalGlossary(ctx, 404); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ResetLocalGlossary err = %v, want sql.ErrNoRows", err)
	}
}

func TestRepositoryListGlossaryFolders(t *testing.T) {
	f := newFixture(t)
	second := testutil.CreatePage(t, f.db, store.CreatePageParams{
		PID: f.rootID, Title: "More terms", Doktype: store.DoktypeSysFolder, Module: GlossaryModuleName,
	})
	testutil.CreatePage(t, f.db, store.CreatePageParams{PID: f.rootID, Title: "Home"})

	folders, err := f.repo.ListGlossaryFolders(context.Background())
	if err != nil {
		t.Fatalf("ListGlossaryFolders: %v", err)
	}
	if len(folders) != 2 || folders[0].UID != f.page.UID || folders[1].UID != second.UID {
		t.Errorf("folders = %+v, want the two default-language glossary folders", folders)
	}
}
