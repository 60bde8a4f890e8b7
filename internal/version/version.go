// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "strings"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// Short returns the version without a leading "v", or "dev" when unset.
func (i Info) Short() string {
	v := strings.TrimPrefix(i.Version, "v")
	if v == "" {
		return "dev"
	}
	return v
}

// String returns a human readable version line.
func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Short())
	if i.GitCommit != "" {
		b.WriteString(" (" + i.GitCommit + ")")
	}
	if i.BuildTime != "" {
		b.WriteString(" built " + i.BuildTime)
	}
	return b.String()
}

// UserAgent returns "product/version" for outgoing HTTP requests.
func (i Info) UserAgent(product string) string {
	return product + "/" + i.Short()
}
