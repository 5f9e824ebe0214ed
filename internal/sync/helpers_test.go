// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"context"
	"net/url"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/database"
	"github.com/tomtom215/metricsync/internal/models"
)

const testBaseURL = "http://1c.test/UNF_CRM_WS/hs/Grafana/anydata"

func strp(s string) *string { return &s }
func intp(i int64) *int64   { return &i }

// newTestDB opens a SQLite store with a fresh schema.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), &config.DatabaseConfig{
		Driver:         database.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "sync.db"),
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.EnsureSchema(context.Background(), true); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	return db
}

func newTestSession(t *testing.T, db *database.DB) *database.Session {
	t.Helper()
	sess, err := db.NewSession(context.Background())
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func sessionFactory(db *database.DB) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		sess, err := db.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// readBack opens a short-lived session and returns the committed tables.
func readBack(t *testing.T, db *database.DB) ([]models.Territory, []models.Setting, []models.Indicator) {
	t.Helper()
	ctx := context.Background()

	sess, err := db.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	territories, err := sess.Territories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	settings, err := sess.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	indicators, err := sess.Indicators(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return territories, settings, indicators
}

// fakeSource answers by query name and records every requested URL.
type fakeSource struct {
	mu        gosync.Mutex
	responses map[string][]models.Record
	errs      map[string]error
	urls      []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		responses: make(map[string][]models.Record),
		errs:      make(map[string]error),
	}
}

func (f *fakeSource) Fetch(_ context.Context, reqURL string) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.urls = append(f.urls, reqURL)

	u, err := url.Parse(reqURL)
	if err != nil {
		return nil, err
	}
	name := u.Query().Get("query")
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.responses[name], nil
}

func (f *fakeSource) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func indicatorDates(rows []models.Indicator) []string {
	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	return dates
}
