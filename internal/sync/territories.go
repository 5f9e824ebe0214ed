// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"context"

	"github.com/tomtom215/metricsync/internal/models"
	"github.com/tomtom215/metricsync/internal/source"
)

// ReferenceDataLoader fully replaces the territories table.
type ReferenceDataLoader struct {
	source  source.Fetcher
	queries QueryBuilder
}

// NewReferenceDataLoader creates a loader.
func NewReferenceDataLoader(src source.Fetcher, queries QueryBuilder) *ReferenceDataLoader {
	return &ReferenceDataLoader{source: src, queries: queries}
}

// LoadTerritories reloads the table and inserts every fetched territory.
// Missing fields become NULL; the store's constraints decide the rest.
func (l *ReferenceDataLoader) LoadTerritories(ctx context.Context, sess Session) (int, error) {
	if _, err := sess.Reload(ctx, models.TableTerritories); err != nil {
		return 0, err
	}

	records, err := l.source.Fetch(ctx, l.queries.QueryURL(QueryTerritories))
	if err != nil {
		return 0, err
	}

	rows := make([]models.Territory, len(records))
	for i, r := range records {
		rows[i] = models.TerritoryFromRecord(r)
	}

	n, err := sess.InsertTerritories(ctx, rows)
	return int(n), err
}
