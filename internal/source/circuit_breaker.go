// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package source

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/models"
)

// BreakerName labels the breaker in logs and metrics.
const BreakerName = "source-api"

// CircuitBreakerClient stops hammering an unhealthy source: after
// source.breaker_failures consecutive failures every further fetch is
// rejected until source.breaker_timeout has passed.
//
// A run aborts on the first failed fetch, so the breaker matters when a
// Fetcher is shared across runs in one process (tests, future scheduling).
type CircuitBreakerClient struct {
	client Fetcher
	cb     *gobreaker.CircuitBreaker[[]models.Record]
	name   string
}

// NewCircuitBreakerClient wraps client.
func NewCircuitBreakerClient(client Fetcher, cfg *config.SourceConfig) *CircuitBreakerClient {
	threshold := cfg.BreakerFailures
	if threshold == 0 {
		threshold = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(BreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(BreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.Record](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// Cancellation is the caller giving up, not the source failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: BreakerName}
}

// Fetch runs the wrapped fetch through the breaker. Rejections are returned
// as *FetchError wrapping gobreaker.ErrOpenState or ErrTooManyRequests.
func (cbc *CircuitBreakerClient) Fetch(ctx context.Context, reqURL string) ([]models.Record, error) {
	records, err := cbc.cb.Execute(func() ([]models.Record, error) {
		return cbc.client.Fetch(ctx, reqURL)
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
		return records, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("query", queryName(reqURL)).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, &FetchError{URL: reqURL, Err: err}
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(cbc.cb.Counts().ConsecutiveFailures))
	return nil, err
}

// State reports the current breaker state.
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
