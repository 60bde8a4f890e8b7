package deepl_glossary

import (
	"context"
	"database/sql"
	"testing"

	"github.com/olegiv/ocms-deepl/internal/store"
	"github.com/olegiv/ocms-deepl/internal/testutil"
	"github.com/olegiv/ocms-deepl/internal/testutil/moduleutil"
)

// fixture is a site with a glossary folder translated into en and fr.
type fixture struct {
	db     *sql.DB
	repo   *SQLRepository
	rootID int64
	page   store.Page
}

// Language ids of the fixture site.
const (
	langDE int64 = 0
	langEN int64 = 1
	langFR int64 = 2
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	moduleutil.RunMigrations(t, db, New().Migrations())

	site := testutil.CreateSite(t, db, "main", "de_DE.UTF-8", "en_US.UTF-8", "fr_FR.UTF-8")
	page := testutil.CreatePage(t, db, store.CreatePageParams{
		PID:     site.RootID,
		Title:   "Glossary",
		Doktype: store.DoktypeSysFolder,
		Module:  GlossaryModuleName,
	})
	for _, lang := range []int64{langEN, langFR} {
		testutil.CreatePage(t, db, store.CreatePageParams{
			PID:            site.RootID,
			Title:          "Glossary",
			Doktype:        store.DoktypeSysFolder,
			Module:         GlossaryModuleName,
			SysLanguageUID: lang,
			L10nParent:     page.UID,
		})
	}

	return &fixture{db: db, repo: NewSQLRepository(db), rootID: site.RootID, page: page}
}

// addTerm adds a default-language record and returns its uid.
func (f *fixture) addTerm(t *testing.T, term string) int64 {
	t.Helper()
	uid, err := f.repo.CreateEntry(context.Background(), EntryParams{PID: f.page.UID, Term: term})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	return uid
}

// translate adds a translation of the record parent.
func (f *fixture) translate(t *testing.T, parent, lang int64, term string) {
	t.Helper()
	if _, err := f.repo.CreateEntry(context.Background(), EntryParams{
		PID:            f.page.UID,
		SysLanguageUID: lang,
		L10nParent:     parent,
		Term:           term,
	}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
}

// staticPairs is a PairsSource with a fixed mapping.
type staticPairs PairMapping

func (p staticPairs) SupportedPairs(context.Context) (PairMapping, error) {
	return PairMapping(p), nil
}
