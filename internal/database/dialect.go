// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
dialect.go - SQL Dialects

Each supported store differs in four places:
  - Identifier quoting: `x` for MySQL, "x" for PostgreSQL and SQLite
  - Placeholders: ? for MySQL and SQLite, $n for PostgreSQL
  - DDL: auto-increment / identity syntax and index placement
  - Identity reset after a full delete:
    MySQL       ALTER TABLE t AUTO_INCREMENT = 1 (implicit commit)
    PostgreSQL  ALTER TABLE t ALTER COLUMN id RESTART WITH 1
    SQLite      DELETE FROM sqlite_sequence WHERE name = 't'

The column set is identical in every dialect. "group" and "date" are
reserved or keyword names, so every column is quoted.

MySQL tables pin utf8mb4_unicode_ci so that name equality (the unique
keys and Session.SettingExists) ignores case and trailing spaces on every
server version. PostgreSQL and SQLite compare names byte for byte.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/metricsync/internal/models"
)

// Driver names accepted in configuration.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned for a driver name outside the supported set.
var ErrUnknownDriver = errors.New("unknown database driver")

// Dialect captures the SQL differences between stores.
type Dialect struct {
	Name string

	// ImplicitDDLCommit is true when DDL ends the open transaction.
	ImplicitDDLCommit bool

	quoteChar   string
	dollarParam bool
	createDDL   map[string][]string
	resetSQL    func(table string) (query string, args []any)
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (*Dialect, error) {
	switch driver {
	case DriverMySQL:
		return mysqlDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	case DriverSQLite:
		return sqliteDialect, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Quote quotes an identifier.
func (d *Dialect) Quote(ident string) string {
	return d.quoteChar + ident + d.quoteChar
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d *Dialect) Placeholder(n int) string {
	if d.dollarParam {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ColumnList quotes and joins columns.
func (d *Dialect) ColumnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// InsertSQL builds a single-row INSERT for table.
func (d *Dialect) InsertSQL(table string, columns []string) string {
	params := make([]string, len(columns))
	for i := range columns {
		params[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table), d.ColumnList(columns), strings.Join(params, ", "))
}

// ResetIdentitySQL returns the statement that restarts table's id at 1.
func (d *Dialect) ResetIdentitySQL(table string) (string, []any) {
	return d.resetSQL(table)
}

// CreateTableSQL returns the statements that create table.
func (d *Dialect) CreateTableSQL(table string) []string {
	return d.createDDL[table]
}

// DropTableSQL returns the statement that drops table.
func (d *Dialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

// Column sets, in insert order.
var (
	territoryColumns = []string{"name", "group", "maingroup", "department"}
	settingColumns   = []string{"name", "params", "prop", "variable1", "variable2", "variable3", "variable4", "variable5", "type"}
	indicatorColumns = []string{"date", "prop", "value", "variable1", "variable2", "variable3", "variable4", "variable5"}
)

var mysqlDialect = &Dialect{
	Name:              DriverMySQL,
	ImplicitDDLCommit: true,
	quoteChar:         "`",
	resetSQL: func(table string) (string, []any) {
		return fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = 1", table), nil
	},
	createDDL: map[string][]string{
		models.TableTerritories: {"CREATE TABLE IF NOT EXISTS `territories` (" +
			"`id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
			"`name` VARCHAR(255) NOT NULL, " +
			"`group` VARCHAR(255) NOT NULL, " +
			"`maingroup` VARCHAR(255) NOT NULL, " +
			"`department` VARCHAR(255) NULL, " +
			"UNIQUE KEY `uq_territories_name` (`name`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"},
		models.TableSettings: {"CREATE TABLE IF NOT EXISTS `settings` (" +
			"`id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
			"`name` VARCHAR(255) NOT NULL, " +
			"`params` VARCHAR(255) NULL, " +
			"`prop` VARCHAR(255) NULL, " +
			"`variable1` VARCHAR(255) NULL, " +
			"`variable2` VARCHAR(255) NULL, " +
			"`variable3` VARCHAR(255) NULL, " +
			"`variable4` VARCHAR(255) NULL, " +
			"`variable5` VARCHAR(255) NULL, " +
			"`type` INT NOT NULL, " +
			"UNIQUE KEY `uq_settings_name` (`name`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"},
		models.TableIndicators: {"CREATE TABLE IF NOT EXISTS `indicators` (" +
			"`id` INT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
			"`date` CHAR(8) NOT NULL, " +
			"`prop` VARCHAR(255) NULL, " +
			"`value` INT NULL, " +
			"`variable1` VARCHAR(255) NULL, " +
			"`variable2` VARCHAR(255) NULL, " +
			"`variable3` VARCHAR(255) NULL, " +
			"`variable4` VARCHAR(255) NULL, " +
			"`variable5` VARCHAR(255) NULL, " +
			"KEY `idx_indicators_date` (`date`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci"},
	},
}

var postgresDialect = &Dialect{
	Name:        DriverPostgres,
	quoteChar:   `"`,
	dollarParam: true,
	resetSQL: func(table string) (string, []any) {
		return fmt.Sprintf(`ALTER TABLE "%s" ALTER COLUMN "id" RESTART WITH 1`, table), nil
	},
	createDDL: map[string][]string{
		models.TableTerritories: {`CREATE TABLE IF NOT EXISTS "territories" (` +
			`"id" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, ` +
			`"name" VARCHAR(255) NOT NULL UNIQUE, ` +
			`"group" VARCHAR(255) NOT NULL, ` +
			`"maingroup" VARCHAR(255) NOT NULL, ` +
			`"department" VARCHAR(255) NULL)`},
		models.TableSettings: {`CREATE TABLE IF NOT EXISTS "settings" (` +
			`"id" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, ` +
			`"name" VARCHAR(255) NOT NULL UNIQUE, ` +
			`"params" VARCHAR(255) NULL, ` +
			`"prop" VARCHAR(255) NULL, ` +
			`"variable1" VARCHAR(255) NULL, ` +
			`"variable2" VARCHAR(255) NULL, ` +
			`"variable3" VARCHAR(255) NULL, ` +
			`"variable4" VARCHAR(255) NULL, ` +
			`"variable5" VARCHAR(255) NULL, ` +
			`"type" INTEGER NOT NULL)`},
		models.TableIndicators: {
			`CREATE TABLE IF NOT EXISTS "indicators" (` +
				`"id" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, ` +
				`"date" CHAR(8) NOT NULL, ` +
				`"prop" VARCHAR(255) NULL, ` +
				`"value" INTEGER NULL, ` +
				`"variable1" VARCHAR(255) NULL, ` +
				`"variable2" VARCHAR(255) NULL, ` +
				`"variable3" VARCHAR(255) NULL, ` +
				`"variable4" VARCHAR(255) NULL, ` +
				`"variable5" VARCHAR(255) NULL)`,
			`CREATE INDEX IF NOT EXISTS "idx_indicators_date" ON "indicators" ("date")`,
		},
	},
}

var sqliteDialect = &Dialect{
	Name:      DriverSQLite,
	quoteChar: `"`,
	resetSQL: func(table string) (string, []any) {
		return `DELETE FROM "sqlite_sequence" WHERE "name" = ?`, []any{table}
	},
	createDDL: map[string][]string{
		models.TableTerritories: {`CREATE TABLE IF NOT EXISTS "territories" (` +
			`"id" INTEGER PRIMARY KEY AUTOINCREMENT, ` +
			`"name" VARCHAR(255) NOT NULL UNIQUE, ` +
			`"group" VARCHAR(255) NOT NULL, ` +
			`"maingroup" VARCHAR(255) NOT NULL, ` +
			`"department" VARCHAR(255) NULL)`},
		models.TableSettings: {`CREATE TABLE IF NOT EXISTS "settings" (` +
			`"id" INTEGER PRIMARY KEY AUTOINCREMENT, ` +
			`"name" VARCHAR(255) NOT NULL UNIQUE, ` +
			`"params" VARCHAR(255) NULL, ` +
			`"prop" VARCHAR(255) NULL, ` +
			`"variable1" VARCHAR(255) NULL, ` +
			`"variable2" VARCHAR(255) NULL, ` +
			`"variable3" VARCHAR(255) NULL, ` +
			`"variable4" VARCHAR(255) NULL, ` +
			`"variable5" VARCHAR(255) NULL, ` +
			`"type" INTEGER NOT NULL)`},
		models.TableIndicators: {
			`CREATE TABLE IF NOT EXISTS "indicators" (` +
				`"id" INTEGER PRIMARY KEY AUTOINCREMENT, ` +
				`"date" CHAR(8) NOT NULL, ` +
				`"prop" VARCHAR(255) NULL, ` +
				`"value" INTEGER NULL, ` +
				`"variable1" VARCHAR(255) NULL, ` +
				`"variable2" VARCHAR(255) NULL, ` +
				`"variable3" VARCHAR(255) NULL, ` +
				`"variable4" VARCHAR(255) NULL, ` +
				`"variable5" VARCHAR(255) NULL)`,
			`CREATE INDEX IF NOT EXISTS "idx_indicators_date" ON "indicators" ("date")`,
		},
	},
}
