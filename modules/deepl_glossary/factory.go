// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/ocms-deepl/internal/deepl"
	"github.com/olegiv/ocms-deepl/internal/store"
)

// LanguageResolver resolves the languages configured for a page's site.
// site.Resolver satisfies it.
type LanguageResolver interface {
	DefaultLanguageCode(ctx context.Context, pageID int64) (string, error)
	AvailableLocalizationIDs(ctx context.Context, pageID int64) ([]int64, error)
	LanguageCodeFor(ctx context.Context, pageID, languageID int64) (string, error)
}

// PairsSource returns the language pairs DeepL supports.
type PairsSource interface {
	SupportedPairs(ctx context.Context) (PairMapping, error)
}

// termSet is one language's records of a page in load order.
type termSet struct {
	ids   []int64
	terms map[int64]string
}

func newTermSet(records []TermRecord) termSet {
	set := termSet{terms: make(map[int64]string, len(records))}
	for _, rec := range records {
		term := normalizeTerm(rec.Term)
		if term == "" {
			continue
		}
		if _, dup := set.terms[rec.ID]; dup {
			continue
		}
		set.ids = append(set.ids, rec.ID)
		set.terms[rec.ID] = term
	}
	return set
}

// GlossaryFactory builds the glossaries of a glossary folder page, one per
// supported language pair that has matching records.
type GlossaryFactory struct {
	repo      Repository
	languages LanguageResolver
	pairs     PairsSource
}

// NewGlossaryFactory creates a factory.
func NewGlossaryFactory(repo Repository, languages LanguageResolver, pairs PairsSource) *GlossaryFactory {
	return &GlossaryFactory{repo: repo, languages: languages, pairs: pairs}
}

// CreateGlossaryInformation returns the glossaries to sync for pageID.
// Pairs without content on either side, pairs targeting the default language
// and pairs DeepL does not support are skipped.
func (f *GlossaryFactory) CreateGlossaryInformation(ctx context.Context, pageID int64) ([]*Glossary, error) {
	page, err := f.repo.GetPage(ctx, pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: page %d not found", ErrInvalidGlossaryPage, pageID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading page %d: %w", pageID, err)
	}
	if !IsGlossaryFolder(page) {
		return nil, fmt.Errorf("%w: page %d", ErrInvalidGlossaryPage, pageID)
	}

	sets, defaultLang, err := f.loadTermSets(ctx, pageID)
	if err != nil {
		return nil, err
	}

	mapping, err := f.pairs.SupportedPairs(ctx)
	if err != nil {
		return nil, err
	}

	var glossaries []*Glossary
	for _, sp := range mapping {
		source, ok := sets[sp.Source]
		if !ok {
			continue
		}
		for _, targetLang := range sp.Targets {
			target, ok := sets[targetLang]
			if !ok || targetLang == defaultLang || targetLang == sp.Source {
				continue
			}

			entries := matchEntries(source, target)
			if len(entries) == 0 {
				continue
			}

			row, err := f.repo.GetGlossaryBySourceAndTargetForSync(ctx, sp.Source, targetLang, page)
			if err != nil {
				return nil, err
			}
			g := NewGlossaryFromRow(row)
			g.SourceLanguage = sp.Source
			g.TargetLanguage = targetLang
			g.Entries = entries
			glossaries = append(glossaries, g)
		}
	}
	return glossaries, nil
}

// loadTermSets returns the records of the page keyed by language code, plus
// the default language code.
func (f *GlossaryFactory) loadTermSets(ctx context.Context, pageID int64) (map[string]termSet, string, error) {
	defaultLang, err := f.languages.DefaultLanguageCode(ctx, pageID)
	if err != nil {
		return nil, "", fmt.Errorf("resolving default language of page %d: %w", pageID, err)
	}
	original, err := f.repo.GetOriginalEntries(ctx, pageID)
	if err != nil {
		return nil, "", err
	}
	sets := map[string]termSet{defaultLang: newTermSet(original)}

	languageIDs, err := f.languages.AvailableLocalizationIDs(ctx, pageID)
	if err != nil {
		return nil, "", fmt.Errorf("resolving localizations of page %d: %w", pageID, err)
	}
	for _, languageID := range languageIDs {
		localized, err := f.repo.GetLocalizedEntries(ctx, pageID, languageID)
		if err != nil {
			return nil, "", err
		}
		code, err := f.languages.LanguageCodeFor(ctx, pageID, languageID)
		if err != nil {
			return nil, "", fmt.Errorf("resolving language %d of page %d: %w", languageID, pageID, err)
		}
		sets[code] = newTermSet(localized)
	}
	return sets, defaultLang, nil
}

// matchEntries pairs source and target terms sharing a record id, in source
// order. Only the first entry of each source term is kept.
func matchEntries(source, target termSet) deepl.GlossaryEntries {
	var entries deepl.GlossaryEntries
	for _, id := range source.ids {
		targetTerm, ok := target.terms[id]
		if !ok {
			continue
		}
		entries = append(entries, deepl.Entry{Source: source.terms[id], Target: targetTerm})
	}
	return dedupBySource(entries)
}

func dedupBySource(entries deepl.GlossaryEntries) deepl.GlossaryEntries {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, dup := seen[e.Source]; dup {
			continue
		}
		seen[e.Source] = struct{}{}
		out = append(out, e)
	}
	return out
}

// IsGlossaryFolder reports whether page holds glossary records.
func IsGlossaryFolder(page store.Page) bool {
	return page.Module == GlossaryModuleName && page.Doktype == store.DoktypeSysFolder
}
