// Metricsync - Business Metric Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/metricsync

package sync

import (
	"net/url"
	"strings"
)

// Query names with a fixed meaning on the source.
const (
	QueryTerritories = "territories"
	QuerySettings    = "settings"
)

// QueryBuilder builds source request URLs. It holds no state beyond the
// base endpoint; equal inputs give equal URLs.
type QueryBuilder struct {
	BaseURL string
}

// QueryURL returns <base>?query=<name>.
func (q QueryBuilder) QueryURL(name string) string {
	var b strings.Builder
	b.WriteString(q.BaseURL)
	b.WriteString("?query=")
	b.WriteString(url.QueryEscape(name))
	return b.String()
}

// BuildURL returns <base>?query=<name>&<paramsKey>=<asOf>. The date
// parameter is omitted when paramsKey is empty.
func (q QueryBuilder) BuildURL(name, paramsKey, asOf string) string {
	u := q.QueryURL(name)
	if paramsKey == "" {
		return u
	}
	return u + "&" + url.QueryEscape(paramsKey) + "=" + url.QueryEscape(asOf)
}
