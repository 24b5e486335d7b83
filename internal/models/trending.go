// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package models

import (
	"time"
)

// TrendDirection classifies period-over-period movement.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendSteady TrendDirection = "steady"
	TrendNew    TrendDirection = "new"
)

// TimeWindow is a half-open interval [Start, End). An event at exactly
// Start is inside the window; an event at exactly End is not.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the half-open window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// WindowAggregate is the rollup of one entity's engagement inside one
// time window.
type WindowAggregate struct {
	EntityType      EntityType     `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	Window          TimeWindow     `json:"window"`
	EventCount      int            `json:"event_count"`
	Score           int            `json:"score"`
	PerActionCounts map[Action]int `json:"per_action_counts,omitempty"`
}

// TrendResult is one row of a trending board: the current-window
// aggregate compared against the prior window, ranked. ChangePct is
// nil when there is no prior baseline to compare against.
type TrendResult struct {
	Rank       int            `json:"rank"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Score      int            `json:"score"`
	EventCount int            `json:"event_count"`
	PriorScore int            `json:"prior_score"`
	ChangePct  *float64       `json:"change_pct,omitempty"`
	Direction  TrendDirection `json:"direction"`
}
