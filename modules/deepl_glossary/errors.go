// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl_glossary

import "errors"

var (
	// ErrInvalidGlossaryPage is returned when a page is not a glossary folder.
	ErrInvalidGlossaryPage = errors.New("page is not a glossary folder")

	// ErrEntriesRequired is returned when a glossary would be created without entries.
	ErrEntriesRequired = errors.New("glossary entries are required")

	// ErrGlossaryCreationFailed is returned when a page yields no glossary to sync.
	ErrGlossaryCreationFailed = errors.New("no glossary can be created from the page records")

	// ErrInvalidEntry is returned for glossary records that cannot be stored.
	ErrInvalidEntry = errors.New("invalid glossary entry")

	// ErrAccessDenied is returned when no module grants modify access to a table.
	ErrAccessDenied = errors.New("access denied")
)
