// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped when the source answers with anything but 200.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrRateLimited is wrapped when 429 persists after all retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidPayload is wrapped when the body is not a JSON array of objects.
	ErrInvalidPayload = errors.New("payload is not a JSON array of objects")
)

// FetchError is returned for every failed fetch: transport errors, timeouts,
// non-200 statuses, undecodable bodies and breaker rejections.
type FetchError struct {
	URL string

	// StatusCode is 0 when no response was received.
	StatusCode int

	// Body is an excerpt of the response, at most maxErrorBodySize bytes.
	Body string

	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
