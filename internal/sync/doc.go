// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

/*
Package sync is the synchronization engine: it turns settings into source
queries, fetches results and merges them into the store.

Key Components:

  - QueryBuilder: builds the source URL for a query name and as-of date
  - ReferenceDataLoader: full replace of the territories table
  - SettingsRegistry: full replace of the settings table (first name wins)
    and the distinct (name, params, type) dispatch list
  - Dispatcher: per setting, fetch and apply the Strategy registered for
    the setting's type
  - Coordinator: one run, one Session, one final commit

Run Sequence:

 1. Territories: reload, fetch "territories", insert
 2. Settings: reload, checkpoint commit, fetch "settings", insert, commit
 3. Indicators: for each distinct setting, fetch with the as-of date and
    apply its strategy
 4. Commit, or roll back everything since the last commit on any error

The settings checkpoint commits also make the territories of the same run
durable. sync.single_transaction suppresses them (see SettingsRegistry).

Strategies by setting type:

  - 2: rolling-window replace (delete indicators after the as-of date, insert
    records whose day fits the as-of month, stamped with the as-of date)
  - 1, 3: inert, fetched but never written
  - anything else: skipped with a warning

Usage Example:

	client := source.NewCircuitBreakerClient(source.NewClient(&cfg.Source), &cfg.Source)
	coord := sync.NewCoordinator(cfg, client, func(ctx context.Context) (sync.Session, error) {
	    return db.NewSession(ctx)
	})
	if err := coord.Run(ctx); err != nil {
	    os.Exit(1) // already logged
	}
*/
package sync
