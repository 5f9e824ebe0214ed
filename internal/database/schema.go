// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/models"
)

// Tables lists the managed tables in creation order.
var Tables = []string{models.TableTerritories, models.TableSettings, models.TableIndicators}

// schemaContext bounds schema operations.
func schemaContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 60*time.Second)
}

// EnsureSchema creates the managed tables. With recreate the tables are
// dropped first, which discards all indicator history.
func (db *DB) EnsureSchema(ctx context.Context, recreate bool) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()

	if recreate {
		for i := len(Tables) - 1; i >= 0; i-- {
			if _, err := db.conn.ExecContext(ctx, db.dialect.DropTableSQL(Tables[i])); err != nil {
				return fmt.Errorf("drop table %s: %w", Tables[i], err)
			}
		}
	}

	for _, table := range Tables {
		for _, stmt := range db.dialect.CreateTableSQL(table) {
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", table, err)
			}
		}
	}

	logging.Info().
		Bool("recreated", recreate).
		Strs("tables", Tables).
		Msg("Database schema ready")
	return nil
}
