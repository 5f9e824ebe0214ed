// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package testinfra provides container-backed stores for integration tests.
//
// Everything here builds only with the integration tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// # MySQL Container
//
// MySQLContainer runs the production store so that MySQL-only behaviour is
// exercised for real: backtick quoting, AUTO_INCREMENT reset and the
// implicit commit that DDL performs inside a transaction.
//
//	func TestAgainstMySQL(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    mysql, err := testinfra.NewMySQLContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, mysql)
//	    db, err := database.Open(ctx, mysql.DatabaseConfig())
//	    // ...
//	}
//
// # CI Considerations
//
// These tests require Docker and network access for the first image pull.
// They are skipped when Docker is unavailable.
package testinfra
