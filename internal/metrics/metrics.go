// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package metrics defines the Prometheus collectors for a sync run.
//
// Metricsync runs as a one-shot job, so nothing is scraped. When
// metrics.textfile_path is set, main calls WriteTextfile after the run and
// the node-exporter textfile collector picks the file up.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_runs_total",
			Help: "Total number of sync runs by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metricsync_run_duration_seconds",
			Help:    "Duration of complete sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RunLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metricsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metricsync_phase_duration_seconds",
			Help:    "Duration of each run phase in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"}, // "territories", "settings", "indicators"
	)

	// Store metrics
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_rows_written_total",
			Help: "Rows inserted per table",
		},
		[]string{"table"},
	)

	RowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_rows_deleted_total",
			Help: "Rows deleted per table",
		},
		[]string{"table"},
	)

	RecordsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_records_discarded_total",
			Help: "Source records dropped before insert, by reason",
		},
		[]string{"reason"}, // "bad_date", "past_month_end", "duplicate_name"
	)

	SettingsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_settings_skipped_total",
			Help: "Settings fetched but not applied, by setting type",
		},
		[]string{"type"},
	)

	// Source metrics
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_source_requests_total",
			Help: "HTTP requests to the business system by result",
		},
		[]string{"query", "result"}, // result: "success", "error"
	)

	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metricsync_source_request_duration_seconds",
			Help:    "Latency of source requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	SourceRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metricsync_source_records_total",
			Help: "Records returned by the source per query",
		},
		[]string{"query"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRun records the outcome of a complete run.
func RecordRun(duration time.Duration, err error) {
	RunDuration.Observe(duration.Seconds())
	if err != nil {
		RunsTotal.WithLabelValues("failure").Inc()
		return
	}
	RunsTotal.WithLabelValues("success").Inc()
	RunLastSuccessTimestamp.SetToCurrentTime()
}

// RecordPhase records how long a phase took.
func RecordPhase(phase string, duration time.Duration) {
	PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordRows adds inserted and deleted row counts for a table.
func RecordRows(table string, inserted, deleted int64) {
	if inserted > 0 {
		RowsWritten.WithLabelValues(table).Add(float64(inserted))
	}
	if deleted > 0 {
		RowsDeleted.WithLabelValues(table).Add(float64(deleted))
	}
}

// RecordDiscarded counts source records dropped for reason.
func RecordDiscarded(reason string, n int) {
	if n > 0 {
		RecordsDiscarded.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordSettingSkipped counts a setting whose type had no effect.
func RecordSettingSkipped(settingType int) {
	SettingsSkipped.WithLabelValues(fmt.Sprint(settingType)).Inc()
}

// RecordSourceRequest records one logical source fetch.
func RecordSourceRequest(query string, duration time.Duration, records int, err error) {
	SourceRequestDuration.WithLabelValues(query).Observe(duration.Seconds())
	if err != nil {
		SourceRequests.WithLabelValues(query, "error").Inc()
		return
	}
	SourceRequests.WithLabelValues(query, "success").Inc()
	SourceRecords.WithLabelValues(query).Add(float64(records))
}

// WriteTextfile writes the default registry to path for the node-exporter
// textfile collector. The write goes through a temp file and rename.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
