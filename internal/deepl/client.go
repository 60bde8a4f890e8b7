// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package deepl implements a client for the DeepL v2 glossary API.
package deepl

//go:generate mockgen -destination=mock/mock_client.go -package=mock -source=client.go Client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Defaults applied by NewClient for zero-valued options.
const (
	DefaultBaseURL       = "https://api.deepl.com"
	DefaultTimeout       = 30 * time.Second
	DefaultRateLimit     = 5
	DefaultMaxRetries    = 3
	DefaultUserAgent     = "ocms-deepl"
	defaultRetryInterval = 500 * time.Millisecond
	maxResponseSize      = 10 << 20
)

var (
	// ErrNotFound is matched by API errors with status 404.
	ErrNotFound = errors.New("deepl: not found")
	// ErrInvalidGlossaryID is returned for ids that are not UUIDs.
	ErrInvalidGlossaryID = errors.New("deepl: invalid glossary id")
	// ErrNoEntries is returned when creating a glossary without entries.
	ErrNoEntries = errors.New("deepl: glossary has no entries")
)

// APIError is a non-2xx response from DeepL.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deepl api error (status %d): %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) true for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is the glossary subset of the DeepL API.
type Client interface {
	ListGlossaryLanguagePairs(ctx context.Context) ([]LanguagePair, error)
	CreateGlossary(ctx context.Context, name, sourceLang, targetLang string, entries GlossaryEntries) (*GlossaryInfo, error)
	DeleteGlossary(ctx context.Context, glossaryID string) error
	GetGlossary(ctx context.Context, glossaryID string) (*GlossaryInfo, error)
	GetGlossaryEntries(ctx context.Context, glossaryID string) (GlossaryEntries, error)
	ListGlossaries(ctx context.Context) ([]GlossaryInfo, error)
}

// Options configures an HTTPClient.
type Options struct {
	AuthKey       string
	BaseURL       string
	Timeout       time.Duration
	RateLimit     int // requests per second
	MaxRetries    int // attempts for transient failures
	RetryInterval time.Duration
	UserAgent     string
	HTTPClient    *http.Client
}

// HTTPClient talks to DeepL over HTTPS.
type HTTPClient struct {
	baseURL       string
	authKey       string
	userAgent     string
	maxRetries    int
	retryInterval time.Duration
	http          *http.Client
	limiter       *rate.Limiter
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates an HTTPClient from opts.
func NewClient(opts Options) (*HTTPClient, error) {
	if strings.TrimSpace(opts.AuthKey) == "" {
		return nil, errors.New("deepl: auth key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("deepl: parsing base url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTPClient{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		authKey:       opts.AuthKey,
		userAgent:     opts.UserAgent,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit),
	}, nil
}

// ListGlossaryLanguagePairs returns the language pairs glossaries can be created for.
func (c *HTTPClient) ListGlossaryLanguagePairs(ctx context.Context) ([]LanguagePair, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/v2/glossary-language-pairs", nil, "")
	if err != nil {
		return nil, fmt.Errorf("listing glossary language pairs: %w", err)
	}

	var result struct {
		SupportedLanguages []LanguagePair `json:"supported_languages"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding glossary language pairs: %w", err)
	}
	pairs := make([]LanguagePair, 0, len(result.SupportedLanguages))
	for _, p := range result.SupportedLanguages {
		pairs = append(pairs, LanguagePair{
			SourceLang: NormalizeLang(p.SourceLang),
			TargetLang: NormalizeLang(p.TargetLang),
		})
	}
	return pairs, nil
}

// CreateGlossary uploads entries as a new glossary.
func (c *HTTPClient) CreateGlossary(ctx context.Context, name, sourceLang, targetLang string, entries GlossaryEntries) (*GlossaryInfo, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	if err := entries.Validate(); err != nil {
		return nil, fmt.Errorf("creating glossary %q: %w", name, err)
	}

	body := map[string]any{
		"name":           name,
		"source_lang":    NormalizeLang(sourceLang),
		"target_lang":    NormalizeLang(targetLang),
		"entries":        entries.TSV(),
		"entries_format": "tsv",
	}
	respBody, err := c.do(ctx, http.MethodPost, "/v2/glossaries", body, "")
	if err != nil {
		return nil, fmt.Errorf("creating glossary %q: %w", name, err)
	}
	return decodeGlossary(respBody)
}

// DeleteGlossary removes a glossary.
func (c *HTTPClient) DeleteGlossary(ctx context.Context, glossaryID string) error {
	path, err := glossaryPath(glossaryID)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodDelete, path, nil, ""); err != nil {
		return fmt.Errorf("deleting glossary %s: %w", glossaryID, err)
	}
	return nil
}

// GetGlossary returns the metadata of a glossary.
func (c *HTTPClient) GetGlossary(ctx context.Context, glossaryID string) (*GlossaryInfo, error) {
	path, err := glossaryPath(glossaryID)
	if err != nil {
		return nil, err
	}
	respBody, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("getting glossary %s: %w", glossaryID, err)
	}
	return decodeGlossary(respBody)
}

// GetGlossaryEntries returns the entries of a glossary.
func (c *HTTPClient) GetGlossaryEntries(ctx context.Context, glossaryID string) (GlossaryEntries, error) {
	path, err := glossaryPath(glossaryID)
	if err != nil {
		return nil, err
	}
	respBody, err := c.do(ctx, http.MethodGet, path+"/entries", nil, "text/tab-separated-values")
	if err != nil {
		return nil, fmt.Errorf("getting entries of glossary %s: %w", glossaryID, err)
	}
	entries, err := ParseTSV(string(respBody))
	if err != nil {
		return nil, fmt.Errorf("parsing entries of glossary %s: %w", glossaryID, err)
	}
	return entries, nil
}

// ListGlossaries returns all glossaries of the account.
func (c *HTTPClient) ListGlossaries(ctx context.Context) ([]GlossaryInfo, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/v2/glossaries", nil, "")
	if err != nil {
		return nil, fmt.Errorf("listing glossaries: %w", err)
	}

	var result struct {
		Glossaries []GlossaryInfo `json:"glossaries"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding glossaries: %w", err)
	}
	for i := range result.Glossaries {
		normalizeInfo(&result.Glossaries[i])
	}
	return result.Glossaries, nil
}

func glossaryPath(glossaryID string) (string, error) {
	id, err := uuid.Parse(glossaryID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidGlossaryID, glossaryID)
	}
	return "/v2/glossaries/" + id.String(), nil
}

func decodeGlossary(data []byte) (*GlossaryInfo, error) {
	var info GlossaryInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding glossary: %w", err)
	}
	normalizeInfo(&info)
	return &info, nil
}

func normalizeInfo(info *GlossaryInfo) {
	info.SourceLang = NormalizeLang(info.SourceLang)
	info.TargetLang = NormalizeLang(info.TargetLang)
}

// do sends a request and returns the response body of a 2xx answer.
// Rate limiting applies to every attempt. 429 is retried with exponential
// backoff for every method. 5xx and transport errors are retried only for
// idempotent requests: a failed POST may still have created a glossary.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, accept string) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
	}

	op := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+c.authKey)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		} else {
			req.Header.Set("Accept", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			err = fmt.Errorf("sending request: %w", err)
			if !idempotent(method) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		if retryable(method, resp.StatusCode) {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries)),
	)
}

func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= http.StatusInternalServerError && idempotent(method)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

// errorMessage extracts DeepL's "message" (and "detail") from an error body,
// falling back to the raw body.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		msg := gjson.GetBytes(body, "message").String()
		if detail := gjson.GetBytes(body, "detail").String(); detail != "" {
			if msg == "" {
				return detail
			}
			return msg + ": " + detail
		}
		if msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
