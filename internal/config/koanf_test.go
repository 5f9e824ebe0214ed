// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the file lookups at an empty temp dir so a stray
// config.yaml or .env in the package directory cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv(DotenvPathEnvVar, "")
	for env := range envMappings {
		t.Setenv(strings.ToUpper(env), "")
		os.Unsetenv(strings.ToUpper(env))
	}
	return dir
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Source.URL != "" {
		t.Errorf("Source.URL should be empty by default, got %q", cfg.Source.URL)
	}
	if cfg.Source.Timeout != 60*time.Second {
		t.Errorf("Source.Timeout = %v, want 60s", cfg.Source.Timeout)
	}
	if cfg.Source.MaxRetries != 3 {
		t.Errorf("Source.MaxRetries = %d, want 3", cfg.Source.MaxRetries)
	}
	if cfg.Source.BreakerFailures != 3 {
		t.Errorf("Source.BreakerFailures = %d, want 3", cfg.Source.BreakerFailures)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if !cfg.Database.RecreateSchema {
		t.Error("Database.RecreateSchema should default to true")
	}
	if cfg.Sync.SingleTransaction {
		t.Error("Sync.SingleTransaction should default to false")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"SOURCE_URL", "source.url"},
		{"SOURCE_MAX_RETRIES", "source.max_retries"},
		{"DB_DRIVER", "database.driver"},
		{"DB_PASSWORD", "database.password"},
		{"SYNC_TIMEZONE", "sync.timezone"},
		{"SYNC_SINGLE_TRANSACTION", "sync.single_transaction"},
		{"LOG_LEVEL", "logging.level"},
		{"METRICS_TEXTFILE_PATH", "metrics.textfile_path"},
		{"USER", ""},
		{"HOST", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	t.Run("no config file exists", func(t *testing.T) {
		if got := findConfigFile(); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("expected config.yaml, got %q", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		custom := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(ConfigPathEnvVar, custom)
		if got := findConfigFile(); got != custom {
			t.Errorf("expected %q, got %q", custom, got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolate(t)

	t.Setenv("SOURCE_URL", "http://1c.local/UNF_CRM_WS/hs/Grafana/anydata")
	t.Setenv("SOURCE_TIMEOUT", "15s")
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USER", "sync")
	t.Setenv("DB_NAME", "metrics")
	t.Setenv("SYNC_TIMEZONE", "Europe/Moscow")
	t.Setenv("SYNC_SINGLE_TRANSACTION", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Source.URL != "http://1c.local/UNF_CRM_WS/hs/Grafana/anydata" {
		t.Errorf("Source.URL = %q", cfg.Source.URL)
	}
	if cfg.Source.Timeout != 15*time.Second {
		t.Errorf("Source.Timeout = %v, want 15s", cfg.Source.Timeout)
	}
	if cfg.Database.Host != "db.local" || cfg.Database.Port != 3307 {
		t.Errorf("Database host/port = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if !cfg.Sync.SingleTransaction {
		t.Error("expected SingleTransaction from env")
	}
	if cfg.Sync.Location().String() != "Europe/Moscow" {
		t.Errorf("Location = %v", cfg.Sync.Location())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfConfigFileAndEnvOverride(t *testing.T) {
	dir := isolate(t)

	yaml := `
source:
  url: https://erp.example/hs/Grafana/anydata
  max_retries: 5
database:
  driver: sqlite
  path: /tmp/metrics.db
  recreate_schema: false
logging:
  level: warn
`
	path := filepath.Join(dir, "metricsync.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Source.MaxRetries != 5 {
		t.Errorf("Source.MaxRetries = %d, want 5", cfg.Source.MaxRetries)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/metrics.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.RecreateSchema {
		t.Error("expected RecreateSchema=false from file")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("env should override file: Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Source.Timeout != 60*time.Second {
		t.Errorf("default should survive: Source.Timeout = %v", cfg.Source.Timeout)
	}
}

func TestLoadWithKoanfDotenv(t *testing.T) {
	dir := isolate(t)

	dotenv := "HOST=mysql.local:3308\nUSER=grafana\nPASSWORD=secret\nDATABASE=bi\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOURCE_URL", "http://1c.local/hs/Grafana/anydata")
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.Database.Host != "mysql.local" || cfg.Database.Port != 3308 {
		t.Errorf("Database host/port = %s:%d, want mysql.local:3308", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "grafana" || cfg.Database.Name != "bi" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("env should override dotenv: Password = %q", cfg.Database.Password)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing source url",
			env:     map[string]string{"DB_USER": "u", "DB_NAME": "n"},
			wantErr: "source.url is required",
		},
		{
			name: "source url with query",
			env: map[string]string{
				"SOURCE_URL": "http://1c.local/anydata?query=settings",
				"DB_USER":    "u", "DB_NAME": "n",
			},
			wantErr: "should not contain query parameters",
		},
		{
			name: "unknown driver",
			env: map[string]string{
				"SOURCE_URL": "http://1c.local/anydata",
				"DB_DRIVER":  "oracle",
			},
			wantErr: "database.driver must be one of",
		},
		{
			name: "sqlite without path",
			env: map[string]string{
				"SOURCE_URL": "http://1c.local/anydata",
				"DB_DRIVER":  "sqlite",
			},
			wantErr: "DB_PATH is required",
		},
		{
			name: "mysql without database name",
			env: map[string]string{
				"SOURCE_URL": "http://1c.local/anydata",
				"DB_USER":    "u",
			},
			wantErr: "DB_NAME is required",
		},
		{
			name: "bad timezone",
			env: map[string]string{
				"SOURCE_URL":    "http://1c.local/anydata",
				"DB_DRIVER":     "sqlite",
				"DB_PATH":       ":memory:",
				"SYNC_TIMEZONE": "Nowhere/City",
			},
			wantErr: "SYNC_TIMEZONE",
		},
		{
			name: "bad log level",
			env: map[string]string{
				"SOURCE_URL": "http://1c.local/anydata",
				"DB_DRIVER":  "sqlite",
				"DB_PATH":    ":memory:",
				"LOG_LEVEL":  "loud",
			},
			wantErr: "LOG_LEVEL must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateEndpointURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://server1c.local/UNF_CRM_WS/hs/Grafana/anydata", false},
		{"https://erp.example:8443/", false},
		{"ftp://erp.example/anydata", true},
		{"http:///anydata", true},
		{"http://erp.example/anydata?query=x", true},
		{"http://erp.example/anydata#frag", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			err := validateEndpointURL(tt.url, "SOURCE_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEndpointURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
