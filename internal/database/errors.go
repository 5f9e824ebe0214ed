// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tomtom215/metricsync/internal/logging"
)

// ErrUnknownTable is returned when an operation names a table outside Tables.
var ErrUnknownTable = errors.New("unknown table")

// ConnectionError means the store could not be reached at startup.
type ConnectionError struct {
	Driver string
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("connect %s: %v", e.Driver, e.Err)
	}
	return fmt.Sprintf("connect %s %s: %v", e.Driver, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ConstraintKind classifies an integrity violation.
type ConstraintKind string

const (
	ConstraintUnique       ConstraintKind = "unique"
	ConstraintNotNull      ConstraintKind = "not_null"
	ConstraintForeignKey   ConstraintKind = "foreign_key"
	ConstraintCheck        ConstraintKind = "check"
	ConstraintInvalidValue ConstraintKind = "invalid_value"
	ConstraintOther        ConstraintKind = "other"
)

// ConstraintError means the store rejected a write.
type ConstraintError struct {
	Table string
	Kind  ConstraintKind
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s constraint violated: %v", e.Table, e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// classifyWriteError turns driver integrity errors into *ConstraintError;
// anything else is returned unchanged.
func classifyWriteError(table string, err error) error {
	if err == nil {
		return nil
	}
	if kind, ok := constraintKind(err); ok {
		return &ConstraintError{Table: table, Kind: kind, Err: err}
	}
	return err
}

func constraintKind(err error) (ConstraintKind, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraintKind(myErr.Number)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return postgresConstraintKind(pgErr.Code)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return sqliteConstraintKind(liteErr.Code(), liteErr.Error())
	}

	return "", false
}

func mysqlConstraintKind(number uint16) (ConstraintKind, bool) {
	switch number {
	case 1062, 1586: // ER_DUP_ENTRY, ER_DUP_ENTRY_WITH_KEY_NAME
		return ConstraintUnique, true
	case 1048, 1364: // ER_BAD_NULL_ERROR, ER_NO_DEFAULT_FOR_FIELD
		return ConstraintNotNull, true
	case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
		return ConstraintForeignKey, true
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return ConstraintCheck, true
	case 1264, 1366, 1406: // out of range, incorrect value, data too long
		return ConstraintInvalidValue, true
	default:
		return "", false
	}
}

func postgresConstraintKind(code string) (ConstraintKind, bool) {
	switch {
	case code == "23505":
		return ConstraintUnique, true
	case code == "23502":
		return ConstraintNotNull, true
	case code == "23503":
		return ConstraintForeignKey, true
	case code == "23514":
		return ConstraintCheck, true
	case strings.HasPrefix(code, "23"):
		return ConstraintOther, true
	case strings.HasPrefix(code, "22"):
		return ConstraintInvalidValue, true
	default:
		return "", false
	}
}

func sqliteConstraintKind(code int, msg string) (ConstraintKind, bool) {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return ConstraintUnique, true
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return ConstraintNotNull, true
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ConstraintForeignKey, true
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return ConstraintCheck, true
	}
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	// Primary code only: fall back to the message.
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ConstraintUnique, true
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return ConstraintNotNull, true
	default:
		return ConstraintOther, true
	}
}

// closeWithLog closes a resource and logs a failure.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
