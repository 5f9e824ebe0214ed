// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

// Package models holds the rows Metricsync writes and the raw records it
// reads from the business system.
//
// Nullable columns are pointers; nil is stored as SQL NULL.
package models

// Table names.
const (
	TableTerritories = "territories"
	TableSettings    = "settings"
	TableIndicators  = "indicators"
)

// Territory is one reference row, fully replaced on every run.
type Territory struct {
	Name       *string `json:"name"`
	Group      *string `json:"group"`
	MainGroup  *string `json:"maingroup"`
	Department *string `json:"department"`
}

// TerritoryFromRecord maps a source record: group comes from group1.
func TerritoryFromRecord(r Record) Territory {
	return Territory{
		Name:       r.String("name"),
		Group:      r.String("group1"),
		MainGroup:  r.String("maingroup"),
		Department: r.String("department"),
	}
}

// Setting describes one remote query and how its results are merged.
type Setting struct {
	Name      *string `json:"name"`
	Params    *string `json:"params"`
	Prop      *string `json:"prop"`
	Variable1 *string `json:"variable1"`
	Variable2 *string `json:"variable2"`
	Variable3 *string `json:"variable3"`
	Variable4 *string `json:"variable4"`
	Variable5 *string `json:"variable5"`
	Type      *int64  `json:"type"`
}

// SettingFromRecord maps a source record: variableN comes from pickN.
func SettingFromRecord(r Record) Setting {
	return Setting{
		Name:      r.String("name"),
		Params:    r.String("params"),
		Prop:      r.String("prop"),
		Variable1: r.String("pick1"),
		Variable2: r.String("pick2"),
		Variable3: r.String("pick3"),
		Variable4: r.String("pick4"),
		Variable5: r.String("pick5"),
		Type:      r.Int("type"),
	}
}

// SettingKey is one distinct (name, params, type) triple: the unit the
// indicator sync dispatches on.
type SettingKey struct {
	Name   string
	Params *string
	Type   int
}

// ParamsKey returns the date parameter name, "" when params is NULL.
func (k SettingKey) ParamsKey() string {
	if k.Params == nil {
		return ""
	}
	return *k.Params
}

// Indicator is one time-series row. Date is YYYYMMDD.
type Indicator struct {
	Date      string  `json:"date"`
	Prop      *string `json:"prop"`
	Value     *int64  `json:"value"`
	Variable1 *string `json:"variable1"`
	Variable2 *string `json:"variable2"`
	Variable3 *string `json:"variable3"`
	Variable4 *string `json:"variable4"`
	Variable5 *string `json:"variable5"`
}

// IndicatorFromRecord maps a source record and stamps it with date.
func IndicatorFromRecord(r Record, date string) Indicator {
	return Indicator{
		Date:      date,
		Prop:      r.String("prop"),
		Value:     r.Int("value"),
		Variable1: r.String("pick1"),
		Variable2: r.String("pick2"),
		Variable3: r.String("pick3"),
		Variable4: r.String("pick4"),
		Variable5: r.String("pick5"),
	}
}
