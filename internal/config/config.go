// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package config loads Metricsync configuration.
//
// Loading order (later layers win):
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML (CONFIG_PATH or DefaultConfigPaths)
//  3. Dotenv file: optional .env with the legacy HOST/USER/PASSWORD/DATABASE keys
//  4. Environment variables: explicit mapping table, see envTransformFunc
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	db, err := database.Open(ctx, &cfg.Database)
//
// Config is immutable after loading.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Source   SourceConfig   `koanf:"source"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// SourceConfig configures the HTTP client for the business system.
type SourceConfig struct {
	// URL is the anydata endpoint, e.g. http://1c.local/UNF_CRM_WS/hs/Grafana/anydata.
	// The query parameters are added per request.
	URL string `koanf:"url" validate:"required,http_url"`

	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`

	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	// Driver is mysql, postgres or sqlite.
	Driver   string `koanf:"driver" validate:"oneof=mysql postgres sqlite"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`

	// Path is the sqlite file (":memory:" allowed).
	Path string `koanf:"path"`

	// RecreateSchema drops and recreates the tables at startup.
	RecreateSchema bool `koanf:"recreate_schema"`

	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
}

// SyncConfig controls run semantics.
type SyncConfig struct {
	// Timezone decides what "yesterday" means.
	Timezone string `koanf:"timezone" validate:"required"`

	// SingleTransaction drops the intermediate settings commits.
	SingleTransaction bool `koanf:"single_transaction"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the end-of-run metrics dump.
type MetricsConfig struct {
	// TextfilePath, when set, receives the registry in Prometheus text format.
	TextfilePath string `koanf:"textfile_path"`
}

// Location returns the configured time zone, UTC when it cannot be loaded.
func (s SyncConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
