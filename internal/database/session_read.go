// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/metricsync/internal/models"
)

// Count returns the number of rows in table, including uncommitted rows of
// this session.
func (s *Session) Count(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.dialect.Quote(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Territories returns all territories ordered by id.
func (s *Session) Territories(ctx context.Context) ([]models.Territory, error) {
	var out []models.Territory
	err := s.selectAll(ctx, models.TableTerritories, territoryColumns, func(rows *sql.Rows) error {
		var name, group, main, dept sql.NullString
		if err := rows.Scan(&name, &group, &main, &dept); err != nil {
			return err
		}
		out = append(out, models.Territory{
			Name: fromNull(name), Group: fromNull(group), MainGroup: fromNull(main), Department: fromNull(dept),
		})
		return nil
	})
	return out, err
}

// Settings returns all settings ordered by id.
func (s *Session) Settings(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	err := s.selectAll(ctx, models.TableSettings, settingColumns, func(rows *sql.Rows) error {
		var (
			name, params, prop, v1, v2, v3, v4, v5 sql.NullString
			typ                                    sql.NullInt64
		)
		if err := rows.Scan(&name, &params, &prop, &v1, &v2, &v3, &v4, &v5, &typ); err != nil {
			return err
		}
		out = append(out, models.Setting{
			Name: fromNull(name), Params: fromNull(params), Prop: fromNull(prop),
			Variable1: fromNull(v1), Variable2: fromNull(v2), Variable3: fromNull(v3),
			Variable4: fromNull(v4), Variable5: fromNull(v5), Type: fromNullInt(typ),
		})
		return nil
	})
	return out, err
}

// Indicators returns all indicators ordered by id.
func (s *Session) Indicators(ctx context.Context) ([]models.Indicator, error) {
	var out []models.Indicator
	err := s.selectAll(ctx, models.TableIndicators, indicatorColumns, func(rows *sql.Rows) error {
		var (
			ind                      models.Indicator
			prop, v1, v2, v3, v4, v5 sql.NullString
			value                    sql.NullInt64
		)
		if err := rows.Scan(&ind.Date, &prop, &value, &v1, &v2, &v3, &v4, &v5); err != nil {
			return err
		}
		ind.Prop, ind.Value = fromNull(prop), fromNullInt(value)
		ind.Variable1, ind.Variable2, ind.Variable3 = fromNull(v1), fromNull(v2), fromNull(v3)
		ind.Variable4, ind.Variable5 = fromNull(v4), fromNull(v5)
		out = append(out, ind)
		return nil
	})
	return out, err
}

// MaxID returns the highest id in table, 0 when empty.
func (s *Session) MaxID(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	var id sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", s.dialect.Quote("id"), s.dialect.Quote(table))
	if err := tx.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("max id of %s: %w", table, err)
	}
	return id.Int64, nil
}

func (s *Session) selectAll(ctx context.Context, table string, columns []string, scan func(*sql.Rows) error) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		s.dialect.ColumnList(columns), s.dialect.Quote(table), s.dialect.Quote("id"))

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func fromNullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
