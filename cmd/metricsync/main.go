// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package main is the entry point for Metricsync.
//
// Metricsync performs one synchronization run and exits. It copies
// territories and settings from a 1C business system into a relational
// store and merges each setting's indicator data according to its type.
// Scheduling is left to cron or a systemd timer.
//
// # Startup Sequence
//
//  1. Configuration: defaults, config.yaml, .env, environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Database: connect (mysql, postgres or sqlite) and ensure the schema
//  4. Source client: HTTP client behind a circuit breaker
//  5. Run: territories, settings, indicators, commit
//  6. Metrics: optional Prometheus textfile for node-exporter
//
// # Configuration
//
// The legacy .env keys of earlier deployments still work:
//
//	HOST=mysql.internal:3306
//	USER=grafana
//	PASSWORD=secret
//	DATABASE=metrics
//
// The source endpoint is required:
//
//	export SOURCE_URL=http://1c.internal/UNF_CRM_WS/hs/Grafana/anydata
//
// # Exit Codes
//
//   - 0: run committed
//   - 1: configuration, connection or run failure (already logged)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the in-flight request or statement; the run
// then rolls back like any other failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/database"
	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/source"
	"github.com/tomtom215/metricsync/internal/sync"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("source_url", cfg.Source.URL).
		Str("db_driver", cfg.Database.Driver).
		Str("timezone", cfg.Sync.Timezone).
		Bool("single_transaction", cfg.Sync.SingleTransaction).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer writeMetrics(cfg.Metrics.TextfilePath)

	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := db.EnsureSchema(ctx, cfg.Database.RecreateSchema); err != nil {
		logging.Error().Err(err).Msg("Failed to prepare schema")
		return 1
	}

	client := source.NewCircuitBreakerClient(source.NewClient(&cfg.Source), &cfg.Source)
	coordinator := sync.NewCoordinator(cfg, client, func(ctx context.Context) (sync.Session, error) {
		sess, err := db.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	})

	if err := coordinator.Run(ctx); err != nil {
		return 1
	}
	return 0
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logging.Warn().Err(err).Msg("Failed to write metrics textfile")
	}
}
