// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGlossaryID = "def3a26b-3e84-45b3-84ae-0c0aaf3525f7"

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		AuthKey:       "secret:fx",
		BaseURL:       srv.URL,
		RateLimit:     100,
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
		UserAgent:     "ocms-deepl/test",
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAuthKey(t *testing.T) {
	_, err := NewClient(Options{AuthKey: "  "})
	require.Error(t, err)
}

func TestListGlossaryLanguagePairs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/glossary-language-pairs", r.URL.Path)
		assert.Equal(t, "DeepL-Auth-Key secret:fx", r.Header.Get("Authorization"))
		assert.Equal(t, "ocms-deepl/test", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"supported_languages":[
			{"source_lang":"de","target_lang":"en"},
			{"source_lang":"DE","target_lang":"FR"},
			{"source_lang":"en","target_lang":"de"}]}`)
	})

	pairs, err := c.ListGlossaryLanguagePairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LanguagePair{
		{SourceLang: "de", TargetLang: "en"},
		{SourceLang: "de", TargetLang: "fr"},
		{SourceLang: "en", TargetLang: "de"},
	}, pairs)
}

func TestCreateGlossary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/glossaries", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Glossary de <> en", body["name"])
		assert.Equal(t, "de", body["source_lang"])
		assert.Equal(t, "en", body["target_lang"])
		assert.Equal(t, "Hallo\tHello\nWelt\tWorld", body["entries"])
		assert.Equal(t, "tsv", body["entries_format"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"glossary_id":"`+testGlossaryID+`","name":"Glossary de <> en",
			"ready":false,"source_lang":"DE","target_lang":"EN",
			"creation_time":"2021-08-03T14:16:18.329Z","entry_count":2}`)
	})

	info, err := c.CreateGlossary(context.Background(), "Glossary de <> en", "DE", "en-GB", GlossaryEntries{
		{Source: "Hallo", Target: "Hello"},
		{Source: "Welt", Target: "World"},
	})
	require.NoError(t, err)
	assert.Equal(t, testGlossaryID, info.GlossaryID)
	assert.False(t, info.Ready)
	assert.Equal(t, "de", info.SourceLang)
	assert.Equal(t, "en", info.TargetLang)
	assert.Equal(t, 2, info.EntryCount)
	assert.Equal(t, 2021, info.CreationTime.Year())
}

func TestCreateGlossaryRejectsInvalidEntries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	ctx := context.Background()

	_, err := c.CreateGlossary(ctx, "g", "de", "en", nil)
	require.ErrorIs(t, err, ErrNoEntries)

	_, err = c.CreateGlossary(ctx, "g", "de", "en", GlossaryEntries{{Source: "a\tb", Target: "x"}})
	require.Error(t, err)

	assert.Zero(t, calls.Load())
}

func TestGetGlossaryNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Glossary not found"}`)
	})

	_, err := c.GetGlossary(context.Background(), testGlossaryID)
	require.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Glossary not found", apiErr.Message)
}

func TestInvalidGlossaryID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := c.GetGlossary(ctx, "../v2/usage")
	assert.ErrorIs(t, err, ErrInvalidGlossaryID)
	assert.ErrorIs(t, c.DeleteGlossary(ctx, ""), ErrInvalidGlossaryID)
	_, err = c.GetGlossaryEntries(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidGlossaryID)
}

func TestDeleteGlossary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v2/glossaries/"+testGlossaryID, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteGlossary(context.Background(), testGlossaryID))
}

func TestGetGlossaryEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/glossaries/"+testGlossaryID+"/entries", r.URL.Path)
		assert.Equal(t, "text/tab-separated-values", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/tab-separated-values")
		_, _ = io.WriteString(w, "Hallo\tHello\r\nWelt\tWorld\n")
	})

	entries, err := c.GetGlossaryEntries(context.Background(), testGlossaryID)
	require.NoError(t, err)
	assert.Equal(t, GlossaryEntries{
		{Source: "Hallo", Target: "Hello"},
		{Source: "Welt", Target: "World"},
	}, entries)
}

func TestListGlossaries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"glossaries":[{"glossary_id":"`+testGlossaryID+`",
			"name":"g","ready":true,"source_lang":"EN","target_lang":"DE","entry_count":1}]}`)
	})

	list, err := c.ListGlossaries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Ready)
	assert.Equal(t, "en", list[0].SourceLang)
	assert.Equal(t, "de", list[0].TargetLang)
}

func TestRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = io.WriteString(w, `{"glossaries":[]}`)
		}
	})

	list, err := c.ListGlossaries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryGivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"Internal error"}`)
	})

	_, err := c.ListGlossaries(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid glossary entries provided","detail":"Key with the index 1 (starting at position 7) duplicates key with the index 0"}`)
	})

	_, err := c.CreateGlossary(context.Background(), "g", "de", "en", GlossaryEntries{{Source: "a", Target: "b"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, apiErr.Message, "Invalid glossary entries provided: Key with the index 1")
}

func TestCreateGlossaryIsNotRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CreateGlossary(context.Background(), "g", "de", "en", GlossaryEntries{{Source: "a", Target: "b"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateGlossaryRetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"glossary_id":"`+testGlossaryID+`","name":"g","ready":true,"source_lang":"de","target_lang":"en","entry_count":1}`)
	})

	info, err := c.CreateGlossary(context.Background(), "g", "de", "en", GlossaryEntries{{Source: "a", Target: "b"}})
	require.NoError(t, err)
	assert.Equal(t, testGlossaryID, info.GlossaryID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeleteGlossaryRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteGlossary(context.Background(), testGlossaryID))
	assert.Equal(t, int32(2), calls.Load())
}

func TestContextCancelStopsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListGlossaries(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "Bad Gateway", errorMessage([]byte("  Bad Gateway \n")))
	assert.Equal(t, "quota", errorMessage([]byte(`{"message":"quota"}`)))
	assert.Equal(t, "", errorMessage(nil))
}
