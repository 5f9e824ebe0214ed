// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/validation"
)

// Validate runs the struct tag rules and then the cross-field checks.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSource(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if err := validateEndpointURL(c.Source.URL, "SOURCE_URL"); err != nil {
		return fmt.Errorf("SOURCE_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DB_DRIVER=%s", c.Database.Driver)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DB_DRIVER=%s", c.Database.Driver)
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required when DB_DRIVER=%s", c.Database.Driver)
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("SYNC_TIMEZONE %q is not a known time zone: %w", c.Sync.Timezone, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateEndpointURL accepts http(s) URLs with a host and an optional path;
// query and fragment belong to individual requests and are rejected.
func validateEndpointURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" || parsedURL.ForceQuery {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	if parsedURL.Fragment != "" {
		return fmt.Errorf("%s should not contain a fragment", fieldName)
	}

	return nil
}
