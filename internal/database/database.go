// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package database is the relational store behind Metricsync.
//
// Three drivers are supported through database/sql:
//   - mysql: github.com/go-sql-driver/mysql (production target)
//   - postgres: github.com/jackc/pgx/v5/stdlib
//   - sqlite: modernc.org/sqlite (local runs and tests)
//
// All writes of a run go through a Session, which pins one connection and
// owns the transaction. Dialect differences (quoting, placeholders, DDL,
// identity reset) live in Dialect.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/logging"
)

// DB is an open store.
type DB struct {
	conn    *sql.DB
	dialect *Dialect
}

// Open connects to the configured store and verifies it with a ping.
// Any failure is a *ConnectionError.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Err: err}
	}

	conn, target, err := openPool(cfg)
	if err != nil {
		return nil, &ConnectionError{Driver: cfg.Driver, Target: target, Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, &ConnectionError{Driver: cfg.Driver, Target: target, Err: err}
	}

	logging.Info().
		Str("driver", dialect.Name).
		Str("target", target).
		Msg("Connected to database")

	return &DB{conn: conn, dialect: dialect}, nil
}

// openPool builds the driver-specific *sql.DB. target is a password-free
// description of what is being connected to.
func openPool(cfg *config.DatabaseConfig) (conn *sql.DB, target string, err error) {
	switch cfg.Driver {
	case DriverMySQL:
		mc := mysqlConfig(cfg)
		connector, err := mysql.NewConnector(mc)
		if err != nil {
			return nil, mc.Addr, fmt.Errorf("mysql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		target = mc.Addr + "/" + mc.DBName

	case DriverPostgres:
		pc, err := pgx.ParseConfig(postgresURL(cfg))
		if err != nil {
			return nil, cfg.Host, fmt.Errorf("postgres config: %w", err)
		}
		conn = stdlib.OpenDB(*pc)
		target = net.JoinHostPort(pc.Host, strconv.Itoa(int(pc.Port))) + "/" + pc.Database

	case DriverSQLite:
		if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, cfg.Path, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		conn, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, cfg.Path, fmt.Errorf("open sqlite: %w", err)
		}
		// One writer; an in-memory database also exists per connection.
		conn.SetMaxOpenConns(1)
		target = cfg.Path

	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	conn.SetConnMaxLifetime(time.Hour)
	return conn, target, nil
}

func mysqlConfig(cfg *config.DatabaseConfig) *mysql.Config {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Name
	mc.Timeout = cfg.ConnectTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

func postgresURL(cfg *config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if secs := int(cfg.ConnectTimeout / time.Second); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Close releases the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}
