// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"context"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/models"
	"github.com/tomtom215/metricsync/internal/source"
)

// SettingsRegistry fully replaces the settings table and lists the
// distinct dispatch keys.
//
// Refresh commits twice: once after the clear and once after the inserts.
// Both commits also cover anything staged earlier in the run. With
// checkpoints disabled neither happens and the coordinator's final commit
// covers the whole run.
type SettingsRegistry struct {
	source      source.Fetcher
	queries     QueryBuilder
	checkpoints bool
}

// NewSettingsRegistry creates a registry. checkpoints enables the two
// intermediate commits of Refresh.
func NewSettingsRegistry(src source.Fetcher, queries QueryBuilder, checkpoints bool) *SettingsRegistry {
	return &SettingsRegistry{source: src, queries: queries, checkpoints: checkpoints}
}

// Refresh reloads the settings table from the source. When a name repeats
// in the fetched batch the first occurrence wins. "Repeats" is decided by
// the store, so on MySQL "Sales", "sales" and "Sales " are one name, exactly
// as its unique key sees them.
func (r *SettingsRegistry) Refresh(ctx context.Context, sess Session) (int, error) {
	if _, err := sess.Reload(ctx, models.TableSettings); err != nil {
		return 0, err
	}
	if err := r.checkpoint(sess); err != nil {
		return 0, err
	}

	records, err := r.source.Fetch(ctx, r.queries.QueryURL(QuerySettings))
	if err != nil {
		return 0, err
	}

	inserted, skipped := 0, 0
	for _, rec := range records {
		setting := models.SettingFromRecord(rec)
		// Nameless records go through so the store rejects them.
		if setting.Name != nil {
			exists, err := sess.SettingExists(ctx, *setting.Name)
			if err != nil {
				return inserted, err
			}
			if exists {
				skipped++
				continue
			}
		}
		if _, err := sess.InsertSettings(ctx, []models.Setting{setting}); err != nil {
			return inserted, err
		}
		inserted++
	}

	if skipped > 0 {
		logging.Ctx(ctx).Debug().Int("count", skipped).Msg("Skipped settings with a repeated name")
		metrics.RecordDiscarded("duplicate_setting", skipped)
	}
	if err := r.checkpoint(sess); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func (r *SettingsRegistry) checkpoint(sess Session) error {
	if !r.checkpoints {
		return nil
	}
	return sess.Commit()
}

// ListDistinct returns the (name, params, type) dispatch keys in order of
// first appearance.
func (r *SettingsRegistry) ListDistinct(ctx context.Context, sess Session) ([]models.SettingKey, error) {
	return sess.DistinctSettings(ctx)
}
