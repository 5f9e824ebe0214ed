// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{name: "success", err: nil, result: "success"},
		{name: "failure", err: errors.New("fetch settings: status 500"), result: "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RunsTotal.WithLabelValues(tt.result))
			RecordRun(2*time.Second, tt.err)
			after := testutil.ToFloat64(RunsTotal.WithLabelValues(tt.result))

			if after != before+1 {
				t.Errorf("runs_total{result=%q} = %v, want %v", tt.result, after, before+1)
			}
		})
	}
}

func TestRecordRun_SuccessSetsTimestamp(t *testing.T) {
	RecordRun(time.Second, nil)
	if testutil.ToFloat64(RunLastSuccessTimestamp) <= 0 {
		t.Error("expected last success timestamp to be set")
	}
}

func TestRecordRows(t *testing.T) {
	beforeW := testutil.ToFloat64(RowsWritten.WithLabelValues("indicators"))
	beforeD := testutil.ToFloat64(RowsDeleted.WithLabelValues("indicators"))

	RecordRows("indicators", 12, 4)
	RecordRows("indicators", 0, 0)

	if got := testutil.ToFloat64(RowsWritten.WithLabelValues("indicators")) - beforeW; got != 12 {
		t.Errorf("rows written delta = %v, want 12", got)
	}
	if got := testutil.ToFloat64(RowsDeleted.WithLabelValues("indicators")) - beforeD; got != 4 {
		t.Errorf("rows deleted delta = %v, want 4", got)
	}
}

func TestRecordSourceRequest(t *testing.T) {
	beforeOK := testutil.ToFloat64(SourceRequests.WithLabelValues("settings", "success"))
	beforeErr := testutil.ToFloat64(SourceRequests.WithLabelValues("settings", "error"))
	beforeRecords := testutil.ToFloat64(SourceRecords.WithLabelValues("settings"))

	RecordSourceRequest("settings", 50*time.Millisecond, 7, nil)
	RecordSourceRequest("settings", 50*time.Millisecond, 0, errors.New("timeout"))

	if got := testutil.ToFloat64(SourceRequests.WithLabelValues("settings", "success")) - beforeOK; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SourceRequests.WithLabelValues("settings", "error")) - beforeErr; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(SourceRecords.WithLabelValues("settings")) - beforeRecords; got != 7 {
		t.Errorf("records delta = %v, want 7", got)
	}
}

func TestRecordDiscardedAndSkipped(t *testing.T) {
	before := testutil.ToFloat64(RecordsDiscarded.WithLabelValues("bad_date"))
	RecordDiscarded("bad_date", 3)
	RecordDiscarded("bad_date", 0)
	if got := testutil.ToFloat64(RecordsDiscarded.WithLabelValues("bad_date")) - before; got != 3 {
		t.Errorf("discarded delta = %v, want 3", got)
	}

	beforeSkip := testutil.ToFloat64(SettingsSkipped.WithLabelValues("7"))
	RecordSettingSkipped(7)
	if got := testutil.ToFloat64(SettingsSkipped.WithLabelValues("7")) - beforeSkip; got != 1 {
		t.Errorf("skipped delta = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordPhase("territories", 100*time.Millisecond)

	path := filepath.Join(t.TempDir(), "metricsync.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `metricsync_phase_duration_seconds_count{phase="territories"}`) {
		t.Errorf("textfile missing phase histogram:\n%s", data)
	}
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "metricsync.prom"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
