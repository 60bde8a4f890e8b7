// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/ocms-deepl/internal/deepl"
)

// Default languages of CreateGlossary.
const (
	DefaultSourceLang = "de"
	DefaultTargetLang = "en"
)

// DraftBuilder builds the glossaries of a page. GlossaryFactory satisfies it.
type DraftBuilder interface {
	CreateGlossaryInformation(ctx context.Context, pageID int64) ([]*Glossary, error)
}

// SyncReport summarises one page sync.
type SyncReport struct {
	PageID  int64    `json:"page_id"`
	Created []string `json:"created"`
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped"`
}

// GlossaryService talks to DeepL and keeps local glossary rows in step.
type GlossaryService struct {
	client  deepl.Client
	repo    Repository
	factory DraftBuilder
	logger  *slog.Logger
}

// NewGlossaryService creates a service.
func NewGlossaryService(client deepl.Client, repo Repository, factory DraftBuilder, logger *slog.Logger) *GlossaryService {
	return &GlossaryService{client: client, repo: repo, factory: factory, logger: logger}
}

// ListGlossaries returns all glossaries stored at DeepL.
func (s *GlossaryService) ListGlossaries(ctx context.Context) ([]deepl.GlossaryInfo, error) {
	return s.client.ListGlossaries(ctx)
}

// GlossaryInformation returns glossary metadata, or nil if DeepL does not know the id.
func (s *GlossaryService) GlossaryInformation(ctx context.Context, glossaryID string) (*deepl.GlossaryInfo, error) {
	info, err := s.client.GetGlossary(ctx, glossaryID)
	if errors.Is(err, deepl.ErrNotFound) {
		return nil, nil
	}
	return info, err
}

// GlossaryEntries returns glossary entries, or nil if DeepL does not know the id.
func (s *GlossaryService) GlossaryEntries(ctx context.Context, glossaryID string) (deepl.GlossaryEntries, error) {
	entries, err := s.client.GetGlossaryEntries(ctx, glossaryID)
	if errors.Is(err, deepl.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

// DeleteGlossary deletes a glossary at DeepL.
func (s *GlossaryService) DeleteGlossary(ctx context.Context, glossaryID string) error {
	return s.client.DeleteGlossary(ctx, glossaryID)
}

// CreateGlossary creates a glossary at DeepL. Empty languages default to de -> en.
func (s *GlossaryService) CreateGlossary(ctx context.Context, name string, entries deepl.GlossaryEntries, sourceLang, targetLang string) (*deepl.GlossaryInfo, error) {
	if len(entries) == 0 {
		return nil, ErrEntriesRequired
	}
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	return s.client.CreateGlossary(ctx, name, sourceLang, targetLang, entries)
}

// SyncGlossaries recreates the DeepL glossaries of a glossary folder page.
// A glossary that was still being built at its last sync is looked up
// first: if DeepL finished it, it is replaced like any ready glossary, if it
// is still pending the pair is skipped so the remote glossary is never
// orphaned. A ready glossary is deleted before its replacement is created.
// When the replacement fails after a delete, the local row is reset and the
// error is returned, so the next sync starts from a clean row.
func (s *GlossaryService) SyncGlossaries(ctx context.Context, pageID int64) (*SyncReport, error) {
	glossaries, err := s.factory.CreateGlossaryInformation(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("building glossaries of page %d: %w", pageID, err)
	}
	if len(glossaries) == 0 {
		return nil, fmt.Errorf("%w: page %d", ErrGlossaryCreationFailed, pageID)
	}

	report := &SyncReport{PageID: pageID}
	for _, g := range glossaries {
		if g.Identifier != "" && !g.Ready {
			pending, err := s.refreshReadiness(ctx, g)
			if err != nil {
				return report, fmt.Errorf("refreshing glossary %s for page %d: %w", g.pairLabel(), pageID, err)
			}
			if pending {
				s.logger.Info("DeepL glossary still pending, keeping it",
					"glossary_id", g.Identifier, "pair", g.pairLabel(), "page_id", pageID)
				report.Skipped = append(report.Skipped, g.pairLabel())
				continue
			}
		}

		deleted := false
		if g.Identifier != "" && g.Ready {
			if err := s.client.DeleteGlossary(ctx, g.Identifier); err != nil && !errors.Is(err, deepl.ErrNotFound) {
				s.logger.Warn("failed to delete previous DeepL glossary",
					"glossary_id", g.Identifier, "pair", g.pairLabel(), "page_id", pageID, "error", err)
			} else {
				deleted = true
				report.Deleted = append(report.Deleted, g.Identifier)
			}
		}

		info, err := s.CreateGlossary(ctx, g.Name(), g.GlossaryEntries(), g.SourceLanguage, g.TargetLanguage)
		if errors.Is(err, ErrEntriesRequired) {
			s.logger.Warn("skipping glossary without entries", "pair", g.pairLabel(), "page_id", pageID)
			report.Skipped = append(report.Skipped, g.pairLabel())
			continue
		}
		if err != nil {
			if deleted {
				if resetErr := s.repo.ResetLocalGlossary(ctx, g.UID); resetErr != nil {
					err = errors.Join(err, resetErr)
				}
			}
			return report, fmt.Errorf("creating glossary %s for page %d: %w", g.pairLabel(), pageID, err)
		}

		if err := s.repo.UpdateLocalGlossary(ctx, info, g.UID); err != nil {
			return report, err
		}
		report.Created = append(report.Created, info.GlossaryID)
		s.logger.Info("DeepL glossary created",
			"glossary_id", info.GlossaryID, "pair", g.pairLabel(), "entries", g.EntriesCount(), "page_id", pageID)
	}
	return report, nil
}

// refreshReadiness fetches the state of a glossary that was not ready at its
// last sync and stores it on the local row. It reports whether DeepL is
// still building the glossary. A glossary DeepL no longer knows is dropped
// from the row.
func (s *GlossaryService) refreshReadiness(ctx context.Context, g *Glossary) (bool, error) {
	info, err := s.client.GetGlossary(ctx, g.Identifier)
	if errors.Is(err, deepl.ErrNotFound) {
		s.logger.Info("previous DeepL glossary no longer exists", "glossary_id", g.Identifier, "pair", g.pairLabel())
		g.Identifier = ""
		return false, s.repo.ResetLocalGlossary(ctx, g.UID)
	}
	if err != nil {
		return false, err
	}
	if !info.Ready {
		return true, nil
	}
	g.Ready = true
	return false, s.repo.SetLocalGlossaryReady(ctx, g.UID, true)
}

// SyncAll syncs every glossary folder. Failing pages do not stop the run;
// their errors are joined. Folders without content are skipped.
func (s *GlossaryService) SyncAll(ctx context.Context) ([]*SyncReport, error) {
	folders, err := s.repo.ListGlossaryFolders(ctx)
	if err != nil {
		return nil, err
	}

	var reports []*SyncReport
	var errs []error
	for _, page := range folders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.SyncGlossaries(ctx, page.UID)
		if errors.Is(err, ErrGlossaryCreationFailed) {
			s.logger.Debug("glossary folder has nothing to sync", "page_id", page.UID)
			continue
		}
		if err != nil {
			s.logger.Error("glossary sync failed", "page_id", page.UID, "error", err)
			errs = append(errs, err)
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, errors.Join(errs...)
}

// Cleanup deletes every DeepL glossary referenced by a local row and resets
// the rows. It returns the number of rows reset.
func (s *GlossaryService) Cleanup(ctx context.Context) (int, error) {
	rows, err := s.repo.ListLocalGlossaries(ctx, 0)
	if err != nil {
		return 0, err
	}

	var errs []error
	count := 0
	for _, row := range rows {
		if row.GlossaryID == "" {
			continue
		}
		if err := s.client.DeleteGlossary(ctx, row.GlossaryID); err != nil && !errors.Is(err, deepl.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		if err := s.repo.ResetLocalGlossary(ctx, row.UID); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	s.logger.Info("DeepL glossaries cleaned up", "count", count)
	return count, errors.Join(errs...)
}
