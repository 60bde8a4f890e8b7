// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"fmt"
	"time"

	"github.com/olegiv/ocms-deepl/internal/deepl"
)

// GlossaryRow is a record of the deepl_glossaries table.
type GlossaryRow struct {
	UID          int64  `json:"uid"`
	PID          int64  `json:"pid"`
	GlossaryID   string `json:"glossary_id"`
	GlossaryName string `json:"glossary_name"`
	Ready        int64  `json:"glossary_ready"`
	LastSync     int64  `json:"glossary_lastsync"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
}

// Glossary is one glossary of a glossary folder for a single language pair.
// It is rebuilt from the records on every sync.
type Glossary struct {
	UID            int64
	PID            int64
	Identifier     string
	Ready          bool
	LastSync       time.Time
	SourceLanguage string
	TargetLanguage string
	Entries        deepl.GlossaryEntries

	name string
}

// NewGlossaryFromRow builds a Glossary from a table row. Entries are left empty.
func NewGlossaryFromRow(row GlossaryRow) *Glossary {
	g := &Glossary{
		UID:            row.UID,
		PID:            row.PID,
		Identifier:     row.GlossaryID,
		Ready:          row.Ready == 1,
		SourceLanguage: row.SourceLang,
		TargetLanguage: row.TargetLang,
		name:           row.GlossaryName,
	}
	if row.LastSync > 0 {
		g.LastSync = time.Unix(row.LastSync, 0).UTC()
	}
	return g
}

// Name returns the glossary name, or "Glossary {src} <> {tgt}" when unset.
func (g *Glossary) Name() string {
	if g.name == "" {
		return fmt.Sprintf("Glossary %s <> %s", g.SourceLanguage, g.TargetLanguage)
	}
	return g.name
}

// SetName sets the glossary name.
func (g *Glossary) SetName(name string) { g.name = name }

// EntriesCount returns the number of entries.
func (g *Glossary) EntriesCount() int { return len(g.Entries) }

// Info converts the glossary to DeepL metadata.
func (g *Glossary) Info() deepl.GlossaryInfo {
	return deepl.GlossaryInfo{
		GlossaryID:   g.Identifier,
		Name:         g.Name(),
		Ready:        g.Ready,
		SourceLang:   g.SourceLanguage,
		TargetLang:   g.TargetLanguage,
		CreationTime: g.LastSync,
		EntryCount:   g.EntriesCount(),
	}
}

// GlossaryEntries returns a copy of the entries in DeepL form.
func (g *Glossary) GlossaryEntries() deepl.GlossaryEntries {
	out := make(deepl.GlossaryEntries, len(g.Entries))
	copy(out, g.Entries)
	return out
}

// pairLabel identifies the language pair in logs and reports.
func (g *Glossary) pairLabel() string {
	return g.SourceLanguage + "-" + g.TargetLanguage
}
