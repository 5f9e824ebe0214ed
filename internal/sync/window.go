// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AsOfLayout is the stored indicator date format (YYYYMMDD).
const AsOfLayout = "20060102"

// ErrNoRecordDay means a source record has no usable day of month.
var ErrNoRecordDay = errors.New("record has no day of month")

// Window is the date horizon of one indicator sync.
type Window struct {
	// AsOf is stamped onto every inserted indicator (YYYYMMDD).
	AsOf string
	// LastDay is the last day of AsOf's calendar month.
	LastDay int
}

// NewWindow parses asOf (YYYYMMDD) and derives the month end.
func NewWindow(asOf string) (Window, error) {
	t, err := time.Parse(AsOfLayout, asOf)
	if err != nil {
		return Window{}, fmt.Errorf("invalid as-of date %q: %w", asOf, err)
	}
	return Window{AsOf: asOf, LastDay: LastDayOfMonth(t)}, nil
}

// Admits reports whether a record reporting day falls inside the window.
func (w Window) Admits(day int) bool {
	return day >= 1 && day <= w.LastDay
}

// Yesterday returns the calendar day before now in loc, as YYYYMMDD.
func Yesterday(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).AddDate(0, 0, -1).Format(AsOfLayout)
}

// LastDayOfMonth returns the number of days in t's month.
func LastDayOfMonth(t time.Time) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RecordDay extracts the day of month from a source date "YYYY-MM-DD".
// A time suffix ("T..." or " ...") is ignored. The day is taken as written,
// so "2024-02-30" gives 30 and is left to the window check.
func RecordDay(date *string) (int, error) {
	if date == nil {
		return 0, ErrNoRecordDay
	}
	s := *date
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrNoRecordDay, *date)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoRecordDay, *date)
	}
	return day, nil
}
