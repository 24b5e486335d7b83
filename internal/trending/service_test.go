// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/townpulse/townpulse/internal/catalog"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/store"
)

func newFixedService(s *store.MemoryStore, cat catalog.Catalog, now time.Time) *Service {
	svc := NewService(s, cat, DefaultServiceConfig())
	svc.SetNow(func() time.Time { return now })
	return svc
}

func TestQuerySevenDayComparison(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Current window: three views and a save, score 5.
	for i := 0; i < 3; i++ {
		seedEvent(t, s, models.EntityShop, "corner-bakery", models.ActionView, 1, now.Add(-time.Duration(i+1)*time.Hour))
	}
	seedEvent(t, s, models.EntityShop, "corner-bakery", models.ActionSave, 2, now.Add(-4*time.Hour))

	// Eight days ago: prior window for a 7d period, score 1.
	seedEvent(t, s, models.EntityShop, "corner-bakery", models.ActionView, 1, now.Add(-8*24*time.Hour))

	svc := newFixedService(s, nil, now)
	results, err := svc.Query(context.Background(), Period7d, nil, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Score != 5 {
		t.Errorf("current score = %d, want 5", r.Score)
	}
	if r.PriorScore != 1 {
		t.Errorf("prior score = %d, want 1", r.PriorScore)
	}
	if r.ChangePct == nil || *r.ChangePct != 400.0 {
		t.Errorf("change pct = %v, want 400.0", r.ChangePct)
	}
	if r.Direction != models.TrendUp {
		t.Errorf("direction = %q, want up", r.Direction)
	}
	if r.Rank != 1 {
		t.Errorf("rank = %d, want 1", r.Rank)
	}
}

func TestQueryEventCountTieBreak(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)

	// Both entities score 10; "many-events" gets there with 6 events,
	// "few-events" with 4.
	for i := 0; i < 4; i++ {
		seedEvent(t, s, models.EntityPhoto, "many-events", models.ActionView, 1, at)
	}
	for i := 0; i < 2; i++ {
		seedEvent(t, s, models.EntityPhoto, "many-events", models.ActionShare, 3, at)
	}
	for i := 0; i < 2; i++ {
		seedEvent(t, s, models.EntityPhoto, "few-events", models.ActionReview, 5, at)
	}
	for i := 0; i < 2; i++ {
		seedEvent(t, s, models.EntityPhoto, "few-events", models.ActionView, 0, at)
	}

	svc := newFixedService(s, nil, now)
	results, err := svc.Query(context.Background(), Period24h, nil, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	// many-events: 4 views + 2 shares = score 10, 6 events.
	// few-events: 2 reviews + 2 zero-point views = score 10, 4 events.
	if results[0].EntityID != "many-events" {
		t.Errorf("leader = %q, want many-events (more events at equal score)", results[0].EntityID)
	}
	if results[0].Score != 10 || results[1].Score != 10 {
		t.Errorf("scores = %d, %d, want 10, 10", results[0].Score, results[1].Score)
	}
	if results[0].EventCount != 6 || results[1].EventCount != 4 {
		t.Errorf("event counts = %d, %d, want 6, 4", results[0].EventCount, results[1].EventCount)
	}
}

func TestQueryTypeFilter(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)

	seedEvent(t, s, models.EntityShop, "s-1", models.ActionView, 1, at)
	seedEvent(t, s, models.EntityCharity, "c-1", models.ActionReview, 5, at)

	shop := models.EntityShop
	svc := newFixedService(s, nil, now)
	results, err := svc.Query(context.Background(), Period24h, &shop, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(results) != 1 || results[0].EntityID != "s-1" {
		t.Errorf("got %v, want only the shop entity", results)
	}
}

func TestQueryLimitSlicesAfterRanking(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := now.Add(-time.Hour)

	seedEvent(t, s, models.EntityShop, "first", models.ActionReview, 5, at)
	seedEvent(t, s, models.EntityShop, "second", models.ActionShare, 3, at)
	seedEvent(t, s, models.EntityShop, "third", models.ActionView, 1, at)

	svc := newFixedService(s, nil, now)
	results, err := svc.Query(context.Background(), Period24h, nil, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want limit 2", len(results))
	}
	if results[0].EntityID != "first" || results[0].Rank != 1 {
		t.Errorf("top row = (%q, %d), want (first, 1)", results[0].EntityID, results[0].Rank)
	}
	if results[1].EntityID != "second" || results[1].Rank != 2 {
		t.Errorf("second row = (%q, %d), want (second, 2)", results[1].EntityID, results[1].Rank)
	}
}

func TestQueryUsesCatalogWhenConfigured(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedEvent(t, s, models.EntityShop, "listed", models.ActionView, 1, now.Add(-time.Hour))

	cat := catalog.NewStatic(map[models.EntityType][]string{
		models.EntityShop: {"listed", "quiet"},
	})

	svc := newFixedService(s, cat, now)
	results, err := svc.Query(context.Background(), Period24h, nil, 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	// Catalog candidates appear even with no activity at all.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 catalog candidates", len(results))
	}
	if results[1].EntityID != "quiet" || results[1].Score != 0 {
		t.Errorf("inactive catalog entity missing: %v", results)
	}
	if results[1].Direction != models.TrendSteady {
		t.Errorf("inactive entity direction = %q, want steady", results[1].Direction)
	}

	// No prior baseline for either entity, so the change stays undefined.
	for _, r := range results {
		if r.ChangePct != nil {
			t.Errorf("entity %q change pct = %v, want undefined without a baseline", r.EntityID, *r.ChangePct)
		}
	}
}

func TestQueryAllOrNothingOnStoreFailure(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedEvent(t, s, models.EntityShop, "s-1", models.ActionView, 1, now.Add(-time.Hour))

	svc := newFixedService(s, nil, now)

	s.SetErr(store.ErrUnavailable)
	results, err := svc.Query(context.Background(), Period24h, nil, 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if results != nil {
		t.Errorf("partial board returned alongside error: %v", results)
	}
}

func TestQueryCachesBoards(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedEvent(t, s, models.EntityShop, "s-1", models.ActionView, 1, now.Add(-time.Hour))

	svc := newFixedService(s, nil, now)

	if _, err := svc.Query(context.Background(), Period24h, nil, 10); err != nil {
		t.Fatalf("first query failed: %v", err)
	}

	// A store outage after the board is cached goes unnoticed within
	// the TTL; the cached board keeps serving.
	s.SetErr(store.ErrUnavailable)
	results, err := svc.Query(context.Background(), Period24h, nil, 10)
	if err != nil {
		t.Fatalf("cached query failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("cached board lost rows: %v", results)
	}

	stats := svc.CacheStats()
	if stats.Hits < 1 {
		t.Errorf("expected at least one cache hit, stats %+v", &stats)
	}
}

func TestQueryEmptyBoard(t *testing.T) {
	svc := newFixedService(store.NewMemoryStore(), nil, time.Now().UTC())

	results, err := svc.Query(context.Background(), Period24h, nil, 10)
	if err != nil {
		t.Fatalf("empty board should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %v, want empty board", results)
	}
}
