// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"math/rand"
	"testing"

	"github.com/townpulse/townpulse/internal/models"
)

func TestRankOrdering(t *testing.T) {
	results := []models.TrendResult{
		{EntityID: "c", Score: 10, EventCount: 4},
		{EntityID: "a", Score: 30, EventCount: 9},
		{EntityID: "b", Score: 10, EventCount: 6},
		{EntityID: "d", Score: 20, EventCount: 5},
	}

	ranked := Rank(results)

	wantOrder := []string{"a", "d", "b", "c"}
	for i, id := range wantOrder {
		if ranked[i].EntityID != id {
			t.Errorf("position %d = %q, want %q", i, ranked[i].EntityID, id)
		}
	}

	// Equal score: the entity with more events ranks first.
	if ranked[2].EntityID != "b" || ranked[3].EntityID != "c" {
		t.Error("event count tie-break not applied")
	}
	if ranked[2].Rank != 3 || ranked[3].Rank != 4 {
		t.Errorf("distinct (score, count) pairs should take distinct ranks, got %d and %d",
			ranked[2].Rank, ranked[3].Rank)
	}
}

func TestRankEntityIDTieBreak(t *testing.T) {
	results := []models.TrendResult{
		{EntityID: "zeta", Score: 10, EventCount: 5},
		{EntityID: "alpha", Score: 10, EventCount: 5},
		{EntityID: "mid", Score: 10, EventCount: 5},
	}

	ranked := Rank(results)

	want := []string{"alpha", "mid", "zeta"}
	for i, id := range want {
		if ranked[i].EntityID != id {
			t.Errorf("position %d = %q, want %q (lexicographic)", i, ranked[i].EntityID, id)
		}
	}

	// Even fully tied entities take distinct positional ranks.
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Errorf("entity %q rank = %d, want %d", r.EntityID, r.Rank, i+1)
		}
	}
}

func TestRankNeverShared(t *testing.T) {
	results := []models.TrendResult{
		{EntityID: "a", Score: 10, EventCount: 5},
		{EntityID: "b", Score: 10, EventCount: 5},
		{EntityID: "c", Score: 8, EventCount: 3},
	}

	ranked := Rank(results)

	for i, want := range []int{1, 2, 3} {
		if ranked[i].Rank != want {
			t.Errorf("position %d rank = %d, want %d", i, ranked[i].Rank, want)
		}
	}
}

func TestRankDeterministicAcrossPermutations(t *testing.T) {
	base := []models.TrendResult{
		{EntityID: "a", Score: 12, EventCount: 3},
		{EntityID: "b", Score: 12, EventCount: 7},
		{EntityID: "c", Score: 5, EventCount: 5},
		{EntityID: "d", Score: 5, EventCount: 5},
		{EntityID: "e", Score: 20, EventCount: 1},
	}

	reference := Rank(append([]models.TrendResult(nil), base...))

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]models.TrendResult(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		ranked := Rank(shuffled)
		for i := range reference {
			if ranked[i].EntityID != reference[i].EntityID || ranked[i].Rank != reference[i].Rank {
				t.Fatalf("trial %d: position %d = (%q, %d), want (%q, %d)",
					trial, i, ranked[i].EntityID, ranked[i].Rank,
					reference[i].EntityID, reference[i].Rank)
			}
		}
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}
