// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"context"

	"github.com/tomtom215/metricsync/internal/database"
	"github.com/tomtom215/metricsync/internal/models"
)

// Session is the unit of work a run writes through. Implemented by
// *database.Session.
type Session interface {
	Dialect() *database.Dialect
	Reload(ctx context.Context, table string) (int64, error)
	InsertTerritories(ctx context.Context, rows []models.Territory) (int64, error)
	InsertSettings(ctx context.Context, rows []models.Setting) (int64, error)
	InsertIndicators(ctx context.Context, rows []models.Indicator) (int64, error)
	SettingExists(ctx context.Context, name string) (bool, error)
	DeleteIndicatorsAfter(ctx context.Context, date string) (int64, error)
	DistinctSettings(ctx context.Context) ([]models.SettingKey, error)
	Commit() error
	Rollback() error
	Close() error
}

// SessionFactory opens the Session for one run.
type SessionFactory func(ctx context.Context) (Session, error)

var _ Session = (*database.Session)(nil)
