// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
dispatcher.go - Indicator Sync Dispatch

For every distinct (name, params, type) in the settings table, in order of
first appearance:

 1. Build the query URL with the as-of date under the setting's params key
 2. Fetch the records (a fetch error aborts the phase)
 3. Look up the strategy for the setting's type and apply it

A type with no registered strategy is logged and counted, never an error.
Nothing here commits; the run coordinator owns the transaction.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/source"
)

// Summary counts what one indicator sync did.
type Summary struct {
	SettingsProcessed int
	SettingsSkipped   int
	RowsDeleted       int64
	RowsInserted      int64
	RecordsDiscarded  int
}

// Dispatcher applies per-type strategies to each distinct setting.
type Dispatcher struct {
	source     source.Fetcher
	queries    QueryBuilder
	registry   *SettingsRegistry
	strategies map[int]Strategy
}

// NewDispatcher creates a dispatcher. A nil strategies map uses
// DefaultStrategies.
func NewDispatcher(src source.Fetcher, queries QueryBuilder, registry *SettingsRegistry, strategies map[int]Strategy) *Dispatcher {
	if strategies == nil {
		strategies = DefaultStrategies()
	}
	return &Dispatcher{source: src, queries: queries, registry: registry, strategies: strategies}
}

// SyncIndicators runs every distinct setting against asOf (YYYYMMDD).
func (d *Dispatcher) SyncIndicators(ctx context.Context, sess Session, asOf string) (Summary, error) {
	var sum Summary

	w, err := NewWindow(asOf)
	if err != nil {
		return sum, err
	}

	keys, err := d.registry.ListDistinct(ctx, sess)
	if err != nil {
		return sum, err
	}

	logger := logging.Ctx(ctx)
	for _, key := range keys {
		reqURL := d.queries.BuildURL(key.Name, key.ParamsKey(), w.AsOf)
		records, err := d.source.Fetch(ctx, reqURL)
		if err != nil {
			return sum, fmt.Errorf("setting %s: %w", key.Name, err)
		}

		strategy, ok := d.strategies[key.Type]
		if !ok {
			logger.Warn().
				Str("setting", key.Name).
				Int("type", key.Type).
				Int("records", len(records)).
				Msg("No strategy for setting type, skipped")
			metrics.RecordSettingSkipped(key.Type)
			sum.SettingsSkipped++
			continue
		}

		out, err := strategy.Apply(ctx, sess, key, records, w)
		sum.RowsDeleted += out.Deleted
		sum.RowsInserted += out.Inserted
		sum.RecordsDiscarded += out.Discarded
		if err != nil {
			return sum, err
		}
		sum.SettingsProcessed++

		logger.Debug().
			Str("setting", key.Name).
			Str("strategy", strategy.Name()).
			Int("records", len(records)).
			Int64("deleted", out.Deleted).
			Int64("inserted", out.Inserted).
			Int("discarded", out.Discarded).
			Msg("Setting synced")
	}

	return sum, nil
}
