// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/ocms-deepl/internal/deepl"
)

// PairsCacheKey is the cache key of the supported language pairs.
const PairsCacheKey = "deepl-glossary-pairs"

// SourcePairs lists the targets DeepL supports for one source language.
type SourcePairs struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// PairMapping groups supported pairs by source language. Sources and targets
// keep the order DeepL advertised them in.
type PairMapping []SourcePairs

// foldPairs groups a flat pair list by source language.
func foldPairs(pairs []deepl.LanguagePair) PairMapping {
	mapping := PairMapping{}
	index := make(map[string]int)
	for _, p := range pairs {
		i, ok := index[p.SourceLang]
		if !ok {
			i = len(mapping)
			index[p.SourceLang] = i
			mapping = append(mapping, SourcePairs{Source: p.SourceLang})
		}
		mapping[i].Targets = append(mapping[i].Targets, p.TargetLang)
	}
	return mapping
}

// PairsCache stores the pair mapping. cache.TypedCache[PairMapping] satisfies it.
type PairsCache interface {
	Get(ctx context.Context, key string) (*PairMapping, bool)
	Set(ctx context.Context, key string, value *PairMapping) error
	Delete(ctx context.Context, key string) error
}

// PairLister fetches supported pairs from DeepL.
type PairLister interface {
	ListGlossaryLanguagePairs(ctx context.Context) ([]deepl.LanguagePair, error)
}

// LanguagePairsListProvider serves the supported language pairs from cache,
// asking DeepL on a miss. The mapping is cached without expiry and only
// refreshed through Invalidate.
type LanguagePairsListProvider struct {
	cache  PairsCache
	client PairLister
	logger *slog.Logger
}

// NewLanguagePairsListProvider creates a provider.
func NewLanguagePairsListProvider(cache PairsCache, client PairLister, logger *slog.Logger) *LanguagePairsListProvider {
	return &LanguagePairsListProvider{cache: cache, client: client, logger: logger}
}

// SupportedPairs returns the mapping of source language to supported targets.
func (p *LanguagePairsListProvider) SupportedPairs(ctx context.Context) (PairMapping, error) {
	if cached, ok := p.cache.Get(ctx, PairsCacheKey); ok && cached != nil {
		return *cached, nil
	}

	pairs, err := p.client.ListGlossaryLanguagePairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching glossary language pairs: %w", err)
	}

	mapping := foldPairs(pairs)
	if err := p.cache.Set(ctx, PairsCacheKey, &mapping); err != nil {
		p.logger.Warn("failed to cache glossary language pairs", "error", err)
	}
	return mapping, nil
}

// Invalidate drops the cached mapping so the next call asks DeepL again.
func (p *LanguagePairsListProvider) Invalidate(ctx context.Context) error {
	if err := p.cache.Delete(ctx, PairsCacheKey); err != nil {
		return fmt.Errorf("invalidating glossary language pairs: %w", err)
	}
	return nil
}
