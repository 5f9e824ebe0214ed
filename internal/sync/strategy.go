// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"context"
	"fmt"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/models"
)

// Setting types with a registered strategy.
const (
	TypeDisabledA     = 1
	TypeRollingWindow = 2
	TypeDisabledB     = 3
)

// Outcome is what one strategy application did to the indicators table.
type Outcome struct {
	Deleted   int64
	Inserted  int64
	Discarded int
}

// Strategy merges one setting's fetched records into the indicators table.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, sess Session, key models.SettingKey, records []models.Record, w Window) (Outcome, error)
}

// DefaultStrategies returns the strategy table keyed by setting type.
func DefaultStrategies() map[int]Strategy {
	return map[int]Strategy{
		TypeDisabledA:     InertStrategy{},
		TypeRollingWindow: RollingWindowStrategy{},
		TypeDisabledB:     InertStrategy{},
	}
}

// RollingWindowStrategy replaces everything after the as-of date with the
// fetched records, all stamped with the as-of date. Only the record's own
// day of month is looked at, as a bound against the as-of month.
type RollingWindowStrategy struct{}

// Name implements Strategy.
func (RollingWindowStrategy) Name() string { return "rolling_window" }

// Apply implements Strategy.
func (RollingWindowStrategy) Apply(ctx context.Context, sess Session, key models.SettingKey, records []models.Record, w Window) (Outcome, error) {
	var out Outcome

	deleted, err := sess.DeleteIndicatorsAfter(ctx, w.AsOf)
	if err != nil {
		return out, err
	}
	out.Deleted = deleted

	rows := make([]models.Indicator, 0, len(records))
	var undated, outOfMonth int
	for _, r := range records {
		day, err := RecordDay(r.String("date"))
		if err != nil {
			undated++
			continue
		}
		if !w.Admits(day) {
			outOfMonth++
			continue
		}
		rows = append(rows, models.IndicatorFromRecord(r, w.AsOf))
	}

	if undated > 0 {
		logging.Ctx(ctx).Warn().
			Str("setting", key.Name).
			Int("count", undated).
			Msg("Discarded records without a parseable date")
		metrics.RecordDiscarded("no_date", undated)
	}
	metrics.RecordDiscarded("out_of_month", outOfMonth)
	out.Discarded = undated + outOfMonth

	inserted, err := sess.InsertIndicators(ctx, rows)
	out.Inserted = inserted
	if err != nil {
		return out, fmt.Errorf("setting %s: %w", key.Name, err)
	}
	return out, nil
}

// InertStrategy fetches but never writes. Types 1 and 3 are reserved for a
// strategy that has not been defined yet.
type InertStrategy struct{}

// Name implements Strategy.
func (InertStrategy) Name() string { return "inert" }

// Apply implements Strategy.
func (InertStrategy) Apply(ctx context.Context, _ Session, key models.SettingKey, records []models.Record, _ Window) (Outcome, error) {
	logging.Ctx(ctx).Debug().
		Str("setting", key.Name).
		Int("type", key.Type).
		Int("records", len(records)).
		Msg("Setting type is inert, nothing written")
	return Outcome{}, nil
}
