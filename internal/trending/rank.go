// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"sort"

	"github.com/townpulse/townpulse/internal/models"
)

// Rank sorts results into board order and assigns 1-based ranks by
// position over the whole set. Order is score descending, then event
// count descending, then entity id ascending, so any input permutation
// yields the same board. The entity id tie-break always distinguishes
// fully tied entities, so no two entities ever share a rank.
// The input slice is sorted in place and returned.
func Rank(results []models.TrendResult) []models.TrendResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].EventCount != results[j].EventCount {
			return results[i].EventCount > results[j].EventCount
		}
		return results[i].EntityID < results[j].EntityID
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}
