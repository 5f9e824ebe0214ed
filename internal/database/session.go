// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
session.go - Unit of Work

A Session pins one connection from the pool for the lifetime of a run and
owns at most one open transaction on it. The transaction is started lazily
by the first statement and ends with Commit or Rollback; the next statement
opens a fresh one. Nothing is committed implicitly except where the store
itself does so (MySQL DDL, see Reload).

Writes that violate an integrity rule surface as *ConstraintError.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/models"
)

// Session is a single-connection unit of work. Not safe for concurrent use.
type Session struct {
	conn    *sql.Conn
	dialect *Dialect
	tx      *sql.Tx
}

// NewSession reserves a connection for a run.
func (db *DB) NewSession(ctx context.Context) (*Session, error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve connection: %w", err)
	}
	return &Session{conn: conn, dialect: db.dialect}, nil
}

// Dialect returns the session's SQL dialect.
func (s *Session) Dialect() *Dialect {
	return s.dialect
}

// InTransaction reports whether uncommitted work is pending.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

func (s *Session) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Commit makes pending work durable. A no-op without a transaction.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards pending work. A no-op without a transaction.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close rolls back anything pending and returns the connection to the pool.
func (s *Session) Close() error {
	if err := s.Rollback(); err != nil {
		logging.Warn().Err(err).Msg("Rollback on session close failed")
	}
	return s.conn.Close()
}

func checkTable(table string) error {
	if !slices.Contains(Tables, table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}

// Reload empties table and restarts its identity at 1. Nothing is
// committed, except on MySQL where the reset is DDL: the delete is committed
// first so the statement order is the same on every store.
func (s *Session) Reload(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM "+s.dialect.Quote(table))
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	deleted, _ := res.RowsAffected()

	resetSQL, args := s.dialect.ResetIdentitySQL(table)
	if s.dialect.ImplicitDDLCommit {
		if err := s.Commit(); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
		if _, err := s.conn.ExecContext(ctx, resetSQL, args...); err != nil {
			return 0, fmt.Errorf("reset identity of %s: %w", table, err)
		}
	} else if _, err := tx.ExecContext(ctx, resetSQL, args...); err != nil {
		return 0, fmt.Errorf("reset identity of %s: %w", table, err)
	}

	metrics.RecordRows(table, 0, deleted)
	logging.Ctx(ctx).Debug().Str("table", table).Int64("deleted", deleted).Msg("Table reloaded")
	return deleted, nil
}

// insertRows prepares the INSERT once and executes it per row.
func (s *Session) insertRows(ctx context.Context, table string, columns []string, n int, row func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.InsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer closeWithLog(stmt, "statement")

	var inserted int64
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return inserted, fmt.Errorf("insert into %s (row %d): %w", table, i, classifyWriteError(table, err))
		}
		inserted++
	}

	metrics.RecordRows(table, inserted, 0)
	return inserted, nil
}

// InsertTerritories appends territory rows.
func (s *Session) InsertTerritories(ctx context.Context, rows []models.Territory) (int64, error) {
	return s.insertRows(ctx, models.TableTerritories, territoryColumns, len(rows), func(i int) []any {
		t := rows[i]
		return []any{nullString(t.Name), nullString(t.Group), nullString(t.MainGroup), nullString(t.Department)}
	})
}

// InsertSettings appends setting rows.
func (s *Session) InsertSettings(ctx context.Context, rows []models.Setting) (int64, error) {
	return s.insertRows(ctx, models.TableSettings, settingColumns, len(rows), func(i int) []any {
		st := rows[i]
		return []any{
			nullString(st.Name), nullString(st.Params), nullString(st.Prop),
			nullString(st.Variable1), nullString(st.Variable2), nullString(st.Variable3),
			nullString(st.Variable4), nullString(st.Variable5), nullInt(st.Type),
		}
	})
}

// InsertIndicators appends indicator rows.
func (s *Session) InsertIndicators(ctx context.Context, rows []models.Indicator) (int64, error) {
	return s.insertRows(ctx, models.TableIndicators, indicatorColumns, len(rows), func(i int) []any {
		ind := rows[i]
		return []any{
			ind.Date, nullString(ind.Prop), nullInt(ind.Value),
			nullString(ind.Variable1), nullString(ind.Variable2), nullString(ind.Variable3),
			nullString(ind.Variable4), nullString(ind.Variable5),
		}
	})
}

// DeleteIndicatorsAfter removes indicators dated strictly after date
// (YYYYMMDD, compared as text).
func (s *Session) DeleteIndicatorsAfter(ctx context.Context, date string) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s > %s",
		s.dialect.Quote(models.TableIndicators), s.dialect.Quote("date"), s.dialect.Placeholder(1))
	res, err := tx.ExecContext(ctx, query, date)
	if err != nil {
		return 0, fmt.Errorf("delete indicators after %s: %w", date, err)
	}
	deleted, _ := res.RowsAffected()
	metrics.RecordRows(models.TableIndicators, 0, deleted)
	return deleted, nil
}

// SettingExists reports whether a setting named name is visible to the
// session, uncommitted rows included. Equality follows the column collation,
// the same rule the unique key on settings.name enforces.
func (s *Session) SettingExists(ctx context.Context, name string) (bool, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s LIMIT 1",
		s.dialect.Quote(models.TableSettings), s.dialect.Quote("name"), s.dialect.Placeholder(1))

	var one int
	err = tx.QueryRowContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up setting %q: %w", name, err)
	}
	return true, nil
}

// DistinctSettings returns one key per (name, params, type), ordered by
// first appearance.
func (s *Session) DistinctSettings(ctx context.Context) ([]models.SettingKey, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	q := s.dialect.Quote
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s GROUP BY %s, %s, %s ORDER BY MIN(%s)",
		q("name"), q("params"), q("type"), q(models.TableSettings),
		q("name"), q("params"), q("type"), q("id"))

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct settings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var keys []models.SettingKey
	for rows.Next() {
		var (
			key    models.SettingKey
			params sql.NullString
		)
		if err := rows.Scan(&key.Name, &params, &key.Type); err != nil {
			return nil, fmt.Errorf("scan setting key: %w", err)
		}
		if params.Valid {
			p := params.String
			key.Params = &p
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return keys, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
