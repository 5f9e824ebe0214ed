// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/metricsync/internal/config"
)

const (
	// DefaultMySQLImage matches the production server major version.
	DefaultMySQLImage = "mysql:8.4"

	// DefaultMySQLPort is the server port inside the container.
	DefaultMySQLPort = "3306"

	defaultMySQLDatabase = "metrics"
	defaultMySQLUser     = "metricsync"
	defaultMySQLPassword = "metricsync"
)

// MySQLContainer is a running MySQL server for tests.
type MySQLContainer struct {
	testcontainers.Container
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// MySQLOption configures the MySQL container.
type MySQLOption func(*mysqlConfig)

type mysqlConfig struct {
	image        string
	database     string
	startTimeout time.Duration
}

// WithMySQLImage sets a custom MySQL image.
func WithMySQLImage(image string) MySQLOption {
	return func(c *mysqlConfig) {
		c.image = image
	}
}

// WithDatabase sets the database created at startup.
func WithDatabase(name string) MySQLOption {
	return func(c *mysqlConfig) {
		c.database = name
	}
}

// WithStartTimeout sets how long to wait for the server.
func WithStartTimeout(timeout time.Duration) MySQLOption {
	return func(c *mysqlConfig) {
		c.startTimeout = timeout
	}
}

// NewMySQLContainer starts a MySQL server with an empty database and a
// user that owns it.
//
// Example:
//
//	mysql, err := testinfra.NewMySQLContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	testinfra.CleanupContainer(t, mysql)
//	db, err := database.Open(ctx, mysql.DatabaseConfig())
func NewMySQLContainer(ctx context.Context, opts ...MySQLOption) (*MySQLContainer, error) {
	cfg := &mysqlConfig{
		image:        DefaultMySQLImage,
		database:     defaultMySQLDatabase,
		startTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMySQLPort + "/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": defaultMySQLPassword,
			"MYSQL_DATABASE":      cfg.database,
			"MYSQL_USER":          defaultMySQLUser,
			"MYSQL_PASSWORD":      defaultMySQLPassword,
			"TZ":                  "UTC",
		},
		// The entrypoint runs a temporary server first; the second
		// "ready for connections" is the real one.
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultMySQLPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultMySQLPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MySQLContainer{
		Container: container,
		Host:      host,
		Port:      port.Int(),
		Database:  cfg.database,
		User:      defaultMySQLUser,
		Password:  defaultMySQLPassword,
	}, nil
}

// DatabaseConfig returns a store configuration pointing at the container.
func (m *MySQLContainer) DatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:         "mysql",
		Host:           m.Host,
		Port:           m.Port,
		User:           m.User,
		Password:       m.Password,
		Name:           m.Database,
		RecreateSchema: true,
		ConnectTimeout: 10 * time.Second,
	}
}
