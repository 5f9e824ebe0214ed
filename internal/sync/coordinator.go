// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
coordinator.go - Run Coordinator

One run is one Session held from start to finish:

	territories -> settings -> indicators -> commit

Any phase error rolls back what is uncommitted and ends the run. What an
earlier commit made durable stays; with default settings that is the
territories and the cleared settings table (see SettingsRegistry). The
failure is logged once here with its phase and the run's correlation ID,
then returned so the caller can set the exit code without logging again.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/metricsync/internal/config"
	"github.com/tomtom215/metricsync/internal/logging"
	"github.com/tomtom215/metricsync/internal/metrics"
	"github.com/tomtom215/metricsync/internal/source"
)

// Phase names, also used as metric labels.
const (
	PhaseSession     = "session"
	PhaseTerritories = "territories"
	PhaseSettings    = "settings"
	PhaseIndicators  = "indicators"
	PhaseCommit      = "commit"
)

// PhaseError ties a run failure to the phase it happened in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// RunSummary reports a completed (or partially completed) run.
type RunSummary struct {
	AsOf        string
	Territories int
	Settings    int
	Indicators  Summary
}

// Coordinator runs the full synchronization once per Run call.
type Coordinator struct {
	sessions    SessionFactory
	territories *ReferenceDataLoader
	registry    *SettingsRegistry
	dispatcher  *Dispatcher
	loc         *time.Location
	singleTx    bool
	now         func() time.Time
}

// NewCoordinator wires the phases against src and the configured endpoint.
func NewCoordinator(cfg *config.Config, src source.Fetcher, sessions SessionFactory) *Coordinator {
	queries := QueryBuilder{BaseURL: cfg.Source.URL}
	registry := NewSettingsRegistry(src, queries, !cfg.Sync.SingleTransaction)

	return &Coordinator{
		sessions:    sessions,
		territories: NewReferenceDataLoader(src, queries),
		registry:    registry,
		dispatcher:  NewDispatcher(src, queries, registry, nil),
		loc:         cfg.Sync.Location(),
		singleTx:    cfg.Sync.SingleTransaction,
		now:         time.Now,
	}
}

// Run performs one synchronization against yesterday's date. A failure is
// logged here and returned; callers should not log it again.
func (c *Coordinator) Run(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx)
	start := time.Now()
	asOf := Yesterday(c.now(), c.loc)

	logger.Info().Str("as_of", asOf).Msg("Sync run started")

	summary, err := c.run(ctx, asOf)
	duration := time.Since(start)
	metrics.RecordRun(duration, err)

	if err != nil {
		phase := "unknown"
		var pe *PhaseError
		if errors.As(err, &pe) {
			phase = pe.Phase
		}
		logger.Error().
			Err(err).
			Str("phase", phase).
			Str("as_of", asOf).
			Dur("duration", duration).
			Msg("Sync run failed, uncommitted changes rolled back")
		return err
	}

	logger.Info().
		Str("as_of", asOf).
		Int("territories", summary.Territories).
		Int("settings", summary.Settings).
		Int("settings_processed", summary.Indicators.SettingsProcessed).
		Int("settings_skipped", summary.Indicators.SettingsSkipped).
		Int64("indicators_deleted", summary.Indicators.RowsDeleted).
		Int64("indicators_inserted", summary.Indicators.RowsInserted).
		Int("records_discarded", summary.Indicators.RecordsDiscarded).
		Dur("duration", duration).
		Msg("Sync run completed")
	return nil
}

func (c *Coordinator) run(ctx context.Context, asOf string) (RunSummary, error) {
	sess, err := c.sessions(ctx)
	if err != nil {
		return RunSummary{AsOf: asOf}, &PhaseError{Phase: PhaseSession, Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close session")
		}
	}()

	if c.singleTx {
		if d := sess.Dialect(); d != nil && d.ImplicitDDLCommit {
			logging.Ctx(ctx).Warn().
				Str("driver", d.Name).
				Msg("Single transaction requested, but this store commits on identity reset")
		}
	}

	summary, err := c.RunPhases(ctx, sess, asOf)
	if err == nil {
		if cerr := sess.Commit(); cerr != nil {
			err = &PhaseError{Phase: PhaseCommit, Err: cerr}
		}
	}
	if err != nil {
		if rerr := sess.Rollback(); rerr != nil {
			logging.Ctx(ctx).Warn().Err(rerr).Msg("Rollback failed")
		}
		return summary, err
	}
	return summary, nil
}

// RunPhases runs territories, settings and indicators on sess without the
// final commit or rollback. The first failing phase stops the sequence.
func (c *Coordinator) RunPhases(ctx context.Context, sess Session, asOf string) (RunSummary, error) {
	summary := RunSummary{AsOf: asOf}

	err := c.phase(ctx, PhaseTerritories, func() error {
		n, err := c.territories.LoadTerritories(ctx, sess)
		summary.Territories = n
		return err
	})
	if err != nil {
		return summary, err
	}

	err = c.phase(ctx, PhaseSettings, func() error {
		n, err := c.registry.Refresh(ctx, sess)
		summary.Settings = n
		return err
	})
	if err != nil {
		return summary, err
	}

	err = c.phase(ctx, PhaseIndicators, func() error {
		sum, err := c.dispatcher.SyncIndicators(ctx, sess, asOf)
		summary.Indicators = sum
		return err
	})
	return summary, err
}

func (c *Coordinator) phase(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordPhase(name, time.Since(start))
	if err != nil {
		return &PhaseError{Phase: name, Err: err}
	}
	logging.Ctx(ctx).Debug().Str("phase", name).Dur("duration", time.Since(start)).Msg("Phase completed")
	return nil
}
