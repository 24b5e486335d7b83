// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package scoring assigns point values to engagement actions.
//
// A WeightTable is immutable once built. Points are stamped onto events
// at ingest time, so changing the table only affects events accepted
// after the change; nothing stored is ever rescored.
package scoring

import (
	"github.com/townpulse/townpulse/internal/models"
)

// DefaultWeightVersion tags receipts produced by the built-in table.
const DefaultWeightVersion = "v1"

// defaultUnknownWeight applies to any action without an explicit weight.
const defaultUnknownWeight = 1

// WeightTable maps actions to point values. Construct via NewWeightTable
// or DefaultWeights; the table cannot be mutated afterwards.
type WeightTable struct {
	version string
	weights map[models.Action]int
}

// NewWeightTable builds an immutable table from the given weights.
// The input map is copied; later mutation of it has no effect.
func NewWeightTable(version string, weights map[models.Action]int) *WeightTable {
	copied := make(map[models.Action]int, len(weights))
	for action, w := range weights {
		copied[action] = w
	}
	return &WeightTable{version: version, weights: copied}
}

// DefaultWeights returns the standard engagement weights.
func DefaultWeights() *WeightTable {
	return NewWeightTable(DefaultWeightVersion, map[models.Action]int{
		models.ActionView:    1,
		models.ActionLike:    2,
		models.ActionSave:    2,
		models.ActionShare:   3,
		models.ActionComment: 4,
		models.ActionAnswer:  4,
		models.ActionReview:  5,
		models.ActionVote:    2,
		models.ActionRSVP:    3,
	})
}

// Weight returns the point value for an action. Actions without an
// explicit weight score 1 rather than failing, so a table rollout that
// lags a new action never drops events.
func (t *WeightTable) Weight(action models.Action) int {
	if w, ok := t.weights[action]; ok {
		return w
	}
	return defaultUnknownWeight
}

// Version identifies the table revision stamped onto receipts.
func (t *WeightTable) Version() string {
	return t.version
}
