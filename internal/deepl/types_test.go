// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlossaryEntriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries GlossaryEntries
		wantErr bool
	}{
		{"valid", GlossaryEntries{{"a", "b"}, {"c", "d"}}, false},
		{"empty list", nil, false},
		{"empty target", GlossaryEntries{{"a", " "}}, true},
		{"newline in source", GlossaryEntries{{"a\nb", "c"}}, true},
		{"duplicate source", GlossaryEntries{{"a", "b"}, {"a", "c"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entries.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTSV(t *testing.T) {
	entries, err := ParseTSV("Haus\tHouse\n\n\"Zitat\"\t\"Quote\"\r\n")
	require.NoError(t, err)
	assert.Equal(t, GlossaryEntries{
		{Source: "Haus", Target: "House"},
		{Source: `"Zitat"`, Target: `"Quote"`},
	}, entries)

	_, err = ParseTSV("no separator")
	assert.Error(t, err)

	encoded := entries.TSV()
	assert.Equal(t, "Haus\tHouse\n\"Zitat\"\t\"Quote\"", encoded)
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, "en", NormalizeLang("EN-GB"))
	assert.Equal(t, "de", NormalizeLang(" DE "))
	assert.Equal(t, "pt", NormalizeLang("pt-br"))
}
