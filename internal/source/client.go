// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
client.go - Business System HTTP Client

The source is a 1C HTTP service exposing one endpoint:

	GET <base>?query=<name>[&<key>=<YYYYMMDD>]

It answers with a JSON array of flat objects. Anything else (non-200
status, transport failure, timeout, a body that is not an array of
objects) is a *FetchError.

Resilience:
  - Timeout: bounded by source.timeout (http.Client.Timeout)
  - Rate limiting: exponential backoff on HTTP 429, honouring Retry-After,
    at most source.max_retries retries
  - Pacing: optional client-side limit of source.requests_per_second
  - Circuit breaker: see CircuitBreakerClient
*/

//nolint:staticcheck // File documentation, not package doc
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/models"
)

// maxErrorBodySize caps how much of a failed response is kept.
const maxErrorBodySize = 64 * 1024 // 64KB

// Fetcher retrieves one query result set. reqURL is the complete request
// URL; sync.QueryBuilder is the only place such URLs are built.
type Fetcher interface {
	Fetch(ctx context.Context, reqURL string) ([]models.Record, error)
}

// Client talks to the business system.
type Client struct {
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
}

// NewClient builds a Client from the source configuration.
func NewClient(cfg *config.SourceConfig) *Client {
	c := &Client{
		client:         &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Fetch performs one GET and decodes the JSON array.
func (c *Client) Fetch(ctx context.Context, reqURL string) ([]models.Record, error) {
	start := time.Now()
	query := queryName(reqURL)

	records, err := c.fetch(ctx, reqURL)
	metrics.RecordSourceRequest(query, time.Since(start), len(records), err)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("query", query).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Fetched source data")
	return records, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]models.Record, error) {
	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
			Err:        fmt.Errorf("%w after %d retries", ErrRateLimited, c.maxRetries),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
			Err:        ErrUnexpectedStatus,
		}
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: reqURL, StatusCode: resp.StatusCode, Err: err}
	}
	return records, nil
}

// doRequestWithRateLimit returns the first non-429 response, or the last
// 429 once retries are exhausted.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		delay := retryDelay(resp.Header.Get("Retry-After"), c.retryBaseDelay, attempt)
		_ = resp.Body.Close()

		logging.Ctx(ctx).Warn().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Str("query", queryName(reqURL)).
			Msg("Source rate limited, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// retryDelay doubles base per attempt unless Retry-After gives seconds or
// an HTTP date.
func retryDelay(retryAfter string, base time.Duration, attempt int) time.Duration {
	delay := base * time.Duration(1<<uint(attempt))
	if retryAfter == "" {
		return delay
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return delay
}

// decodeRecords accepts only a top-level array whose elements are objects.
func decodeRecords(r io.Reader) ([]models.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPayload, jsonKind(payload))
	}

	records := make([]models.Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s", ErrInvalidPayload, i, jsonKind(item))
		}
		records = append(records, models.Record(obj))
	}
	return records, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil && !errors.Is(err, io.EOF) {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// queryName extracts the query parameter for metric labels.
func queryName(reqURL string) string {
	u, err := url.Parse(reqURL)
	if err != nil {
		return "unknown"
	}
	if q := u.Query().Get("query"); q != "" {
		return q
	}
	return "unknown"
}
