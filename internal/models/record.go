// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one flat object from the source. Numbers arrive as json.Number.
//
// The accessors never fail: a value that cannot be represented in the
// target column becomes nil, and the store's NOT NULL constraints decide
// whether the row is acceptable.
type Record map[string]any

// String returns the field as text. Numbers use their shortest decimal form.
func (r Record) String(key string) *string {
	switch v := r[key].(type) {
	case string:
		return &v
	case json.Number:
		s := numberText(v)
		if s == "" {
			return nil
		}
		return &s
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	case int:
		s := strconv.Itoa(v)
		return &s
	case int64:
		s := strconv.FormatInt(v, 10)
		return &s
	default:
		return nil
	}
}

// Int returns the field as an integer. Fractions are rounded half away from
// zero; numeric strings are accepted.
func (r Record) Int(key string) *int64 {
	switch v := r[key].(type) {
	case json.Number:
		return parseInt(string(v))
	case string:
		return parseInt(strings.TrimSpace(v))
	case float64:
		return roundFloat(v)
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	default:
		return nil
	}
}

func numberText(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return roundFloat(f)
}

func roundFloat(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	r := math.Round(f)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return nil
	}
	i := int64(r)
	return &i
}
