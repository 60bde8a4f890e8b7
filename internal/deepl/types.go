// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl

import (
	"fmt"
	"strings"
	"time"
)

// LanguagePair is a source/target combination supported for glossaries.
type LanguagePair struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// GlossaryInfo is the metadata of a glossary stored at DeepL.
type GlossaryInfo struct {
	GlossaryID   string    `json:"glossary_id"`
	Name         string    `json:"name"`
	Ready        bool      `json:"ready"`
	SourceLang   string    `json:"source_lang"`
	TargetLang   string    `json:"target_lang"`
	CreationTime time.Time `json:"creation_time"`
	EntryCount   int       `json:"entry_count"`
}

// Entry is one source term and its translation.
type Entry struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GlossaryEntries is an ordered list of entries with unique source terms.
type GlossaryEntries []Entry

// Validate reports the first entry DeepL would reject.
func (e GlossaryEntries) Validate() error {
	seen := make(map[string]struct{}, len(e))
	for i, entry := range e {
		if strings.TrimSpace(entry.Source) == "" || strings.TrimSpace(entry.Target) == "" {
			return fmt.Errorf("entry %d: source and target must not be empty", i)
		}
		if strings.ContainsAny(entry.Source, "\t\r\n") || strings.ContainsAny(entry.Target, "\t\r\n") {
			return fmt.Errorf("entry %d: terms must not contain tabs or newlines", i)
		}
		if _, dup := seen[entry.Source]; dup {
			return fmt.Errorf("entry %d: duplicate source term %q", i, entry.Source)
		}
		seen[entry.Source] = struct{}{}
	}
	return nil
}

// TSV encodes the entries in DeepL's tab-separated format.
func (e GlossaryEntries) TSV() string {
	var b strings.Builder
	for i, entry := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(entry.Source)
		b.WriteByte('\t')
		b.WriteString(entry.Target)
	}
	return b.String()
}

// ParseTSV decodes tab-separated entries. Blank lines are ignored.
func ParseTSV(data string) (GlossaryEntries, error) {
	var entries GlossaryEntries
	for n, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		source, target, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab separator", n+1)
		}
		entries = append(entries, Entry{Source: source, Target: target})
	}
	return entries, nil
}

// NormalizeLang lower-cases a language code and strips a region suffix,
// so "EN-GB" and "en" compare equal.
func NormalizeLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if base, _, ok := strings.Cut(code, "-"); ok {
		return base
	}
	return code
}
