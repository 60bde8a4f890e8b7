// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

var termPolicy = bluemonday.StrictPolicy()

var (
	closingTag = regexp.MustCompile(`</([a-zA-Z][a-zA-Z0-9]*)\s*>`)
	voidTag    = regexp.MustCompile(`(?i)<(br|hr|wbr|img)\b[^<>]*>`)
)

// normalizeTerm strips markup from a term, unescapes entities and collapses
// whitespace, since DeepL rejects tabs and newlines inside entries.
// Terms without HTML markup keep their angle brackets: "List<String>" is
// a term, not a tag.
func normalizeTerm(term string) string {
	clean := term
	if containsMarkup(term) {
		clean = termPolicy.Sanitize(term)
	}
	clean = html.UnescapeString(clean)
	return strings.Join(strings.Fields(clean), " ")
}

// containsMarkup reports whether term carries rich-text markup: a closing
// tag of a known HTML element or a void element such as <br>.
func containsMarkup(term string) bool {
	if !strings.Contains(term, "<") {
		return false
	}
	if voidTag.MatchString(term) {
		return true
	}
	for _, m := range closingTag.FindAllStringSubmatch(term, -1) {
		if atom.Lookup([]byte(strings.ToLower(m[1]))) != 0 {
			return true
		}
	}
	return false
}
