// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package trending computes engagement aggregates over sliding time
// windows, classifies period-over-period movement, and ranks entities
// into trending boards.
package trending

import (
	"fmt"
	"time"

	"github.com/townpulse/townpulse/internal/models"
)

// Period selects the trending window length.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// DefaultPeriod applies when a query names no period.
const DefaultPeriod = Period24h

// ParsePeriod validates a period string. Empty input falls back to
// the default.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period24h, Period7d, Period30d:
		return Period(s), nil
	case "":
		return DefaultPeriod, nil
	default:
		return "", fmt.Errorf("unknown period %q: must be 24h, 7d, or 30d", s)
	}
}

// Duration returns the period's window length.
func (p Period) Duration() time.Duration {
	switch p {
	case Period7d:
		return 7 * 24 * time.Hour
	case Period30d:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Windows returns the current and prior half-open windows anchored at
// now: current is [now-d, now), prior is the same length immediately
// before it. The two windows never overlap; an event on the shared
// boundary belongs to the current window only.
func (p Period) Windows(now time.Time) (current, prior models.TimeWindow) {
	d := p.Duration()
	currentStart := now.Add(-d)

	current = models.TimeWindow{Start: currentStart, End: now}
	prior = models.TimeWindow{Start: currentStart.Add(-d), End: currentStart}
	return current, prior
}
