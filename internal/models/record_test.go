// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func strp(s string) *string { return &s }
func intp(i int64) *int64   { return &i }

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestRecordString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  *string
	}{
		{"string", "North", strp("North")},
		{"empty string", "", strp("")},
		{"integer number", json.Number("42"), strp("42")},
		{"fraction number", json.Number("1.50"), strp("1.5")},
		{"exponent number", json.Number("1e3"), strp("1000")},
		{"float64", 2.25, strp("2.25")},
		{"null", nil, nil},
		{"bool", true, nil},
		{"object", map[string]any{"a": 1}, nil},
		{"array", []any{"a"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Record{"f": tt.value}
			if got := r.String("f"); !equalStr(got, tt.want) {
				t.Errorf("String() = %v, want %v", deref(got), deref(tt.want))
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		if got := (Record{}).String("f"); got != nil {
			t.Errorf("expected nil, got %q", *got)
		}
	})
}

func TestRecordInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  *int64
	}{
		{"integer number", json.Number("15"), intp(15)},
		{"negative number", json.Number("-3"), intp(-3)},
		{"fraction rounds up", json.Number("2.5"), intp(3)},
		{"fraction rounds down", json.Number("2.4"), intp(2)},
		{"negative half", json.Number("-2.5"), intp(-3)},
		{"numeric string", " 120 ", intp(120)},
		{"fractional string", "7.6", intp(8)},
		{"non numeric string", "n/a", nil},
		{"empty string", "", nil},
		{"float64", 9.9, intp(10)},
		{"huge", json.Number("1e30"), nil},
		{"null", nil, nil},
		{"bool", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Record{"f": tt.value}
			if got := r.Int("f"); !equalInt(got, tt.want) {
				t.Errorf("Int() = %v, want %v", derefInt(got), derefInt(tt.want))
			}
		})
	}
}

func TestTerritoryFromRecord(t *testing.T) {
	t.Parallel()

	r := Record{"name": "Север", "group1": "A", "maingroup": "M", "department": nil, "group": "ignored"}
	got := TerritoryFromRecord(r)

	if !equalStr(got.Name, strp("Север")) || !equalStr(got.Group, strp("A")) || !equalStr(got.MainGroup, strp("M")) {
		t.Errorf("unexpected territory: %+v", got)
	}
	if got.Department != nil {
		t.Errorf("expected NULL department, got %q", *got.Department)
	}
}

func TestSettingFromRecord(t *testing.T) {
	t.Parallel()

	r := Record{
		"name": "sales", "params": "date", "prop": "revenue",
		"pick1": "region", "pick3": json.Number("5"), "type": json.Number("2"),
	}
	got := SettingFromRecord(r)

	if !equalStr(got.Variable1, strp("region")) || got.Variable2 != nil || !equalStr(got.Variable3, strp("5")) {
		t.Errorf("unexpected variables: %+v", got)
	}
	if !equalInt(got.Type, intp(2)) {
		t.Errorf("Type = %v, want 2", derefInt(got.Type))
	}
}

func TestIndicatorFromRecord(t *testing.T) {
	t.Parallel()

	r := Record{"date": "2024-02-29", "prop": "qty", "value": json.Number("10"), "pick5": "x"}
	got := IndicatorFromRecord(r, "20240229")

	if got.Date != "20240229" {
		t.Errorf("Date = %q, want stamped as-of date", got.Date)
	}
	if !equalInt(got.Value, intp(10)) || !equalStr(got.Variable5, strp("x")) || got.Variable1 != nil {
		t.Errorf("unexpected indicator: %+v", got)
	}
}

func TestSettingKeyParamsKey(t *testing.T) {
	t.Parallel()

	if got := (SettingKey{Name: "a"}).ParamsKey(); got != "" {
		t.Errorf("NULL params should give empty key, got %q", got)
	}
	if got := (SettingKey{Name: "a", Params: strp("period")}).ParamsKey(); got != "period" {
		t.Errorf("ParamsKey() = %q, want period", got)
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
