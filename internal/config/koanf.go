// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/metricsync/config.yaml",
	"/etc/metricsync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotenvPathEnvVar overrides the dotenv file path.
const DotenvPathEnvVar = "DOTENV_PATH"

// DefaultDotenvPath is read from the working directory when present.
const DefaultDotenvPath = ".env"

// dotenvMappings maps the legacy .env keys onto config paths.
var dotenvMappings = map[string]string{
	"HOST":     "database.host",
	"USER":     "database.user",
	"PASSWORD": "database.password",
	"DATABASE": "database.name",
}

func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:               "",
			Timeout:           60 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 0, // unlimited
			BreakerFailures:   3,
			BreakerTimeout:    30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         "mysql",
			Host:           "127.0.0.1",
			Port:           0, // driver default
			RecreateSchema: true,
			ConnectTimeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			Timezone:          "Local",
			SingleTransaction: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads and validates configuration from all layers.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if dotenvPath := findDotenvFile(); dotenvPath != "" {
		if err := loadDotenv(k, dotenvPath); err != nil {
			return nil, err
		}
	}

	// SOURCE_URL -> source.url, DB_HOST -> database.host, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func findDotenvFile() string {
	path := DefaultDotenvPath
	if envPath := os.Getenv(DotenvPathEnvVar); envPath != "" {
		path = envPath
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadDotenv parses a .env file into its own koanf instance and copies the
// legacy keys over. HOST may carry a port ("db:3306").
func loadDotenv(k *koanf.Koanf, path string) error {
	d := koanf.New(".")
	if err := d.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}

	for key, target := range dotenvMappings {
		if !d.Exists(key) {
			continue
		}
		value := d.String(key)

		if key == "HOST" {
			if host, port, err := net.SplitHostPort(value); err == nil {
				p, convErr := strconv.Atoi(port)
				if convErr != nil {
					return fmt.Errorf("dotenv HOST has invalid port %q: %w", port, convErr)
				}
				value = host
				if err := k.Set("database.port", p); err != nil {
					return fmt.Errorf("failed to set database.port: %w", err)
				}
			}
		}

		if err := k.Set(target, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", target, err)
		}
	}
	return nil
}

// envMappings is the complete set of recognised environment variables.
// USER and HOST are deliberately absent: shells export them.
var envMappings = map[string]string{
	"source_url":                 "source.url",
	"source_timeout":             "source.timeout",
	"source_max_retries":         "source.max_retries",
	"source_requests_per_second": "source.requests_per_second",
	"source_breaker_failures":    "source.breaker_failures",
	"source_breaker_timeout":     "source.breaker_timeout",

	"db_driver":          "database.driver",
	"db_host":            "database.host",
	"db_port":            "database.port",
	"db_user":            "database.user",
	"db_password":        "database.password",
	"db_name":            "database.name",
	"db_path":            "database.path",
	"db_recreate_schema": "database.recreate_schema",
	"db_connect_timeout": "database.connect_timeout",

	"sync_timezone":           "sync.timezone",
	"sync_single_transaction": "sync.single_transaction",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"metrics_textfile_path": "metrics.textfile_path",
}

// envTransformFunc maps an environment variable to a koanf path; unmapped
// variables return "" and are ignored.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
