// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/store"
)

func seedEvent(t *testing.T, s *store.MemoryStore, entityType models.EntityType, entityID string, action models.Action, points int, at time.Time) {
	t.Helper()
	ev := models.NewEngagementEvent(entityType, entityID, action, "")
	ev.Points = points
	ev.OccurredAt = at
	if err := s.Append(context.Background(), ev); err != nil {
		t.Fatalf("seed append failed: %v", err)
	}
}

func TestAggregateSumsWindow(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: now.Add(-24 * time.Hour), End: now}

	seedEvent(t, s, models.EntityShop, "s-1", models.ActionView, 1, now.Add(-time.Hour))
	seedEvent(t, s, models.EntityShop, "s-1", models.ActionLike, 2, now.Add(-2*time.Hour))
	seedEvent(t, s, models.EntityShop, "s-1", models.ActionReview, 5, now.Add(-3*time.Hour))
	// Outside the window.
	seedEvent(t, s, models.EntityShop, "s-1", models.ActionShare, 3, now.Add(-25*time.Hour))
	// Different entity.
	seedEvent(t, s, models.EntityShop, "s-2", models.ActionView, 1, now.Add(-time.Hour))

	a := NewAggregator(s, 4)
	shop := models.EntityShop
	agg, err := a.Aggregate(context.Background(), &shop, "s-1", window)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if agg.EventCount != 3 {
		t.Errorf("event count = %d, want 3", agg.EventCount)
	}
	if agg.Score != 8 {
		t.Errorf("score = %d, want 8", agg.Score)
	}
	if agg.EntityID != "s-1" || agg.EntityType != models.EntityShop {
		t.Errorf("unexpected identity: %+v", agg)
	}

	wantActions := map[models.Action]int{
		models.ActionView:   1,
		models.ActionLike:   1,
		models.ActionReview: 1,
	}
	if len(agg.PerActionCounts) != len(wantActions) {
		t.Errorf("per-action counts = %v, want %v", agg.PerActionCounts, wantActions)
	}
	for action, want := range wantActions {
		if agg.PerActionCounts[action] != want {
			t.Errorf("count for %q = %d, want %d", action, agg.PerActionCounts[action], want)
		}
	}
}

func TestAggregateEmptyWindowIsZeroNotError(t *testing.T) {
	s := store.NewMemoryStore()
	a := NewAggregator(s, 4)

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: now.Add(-24 * time.Hour), End: now}

	agg, err := a.Aggregate(context.Background(), nil, "ghost", window)
	if err != nil {
		t.Fatalf("empty window should not error: %v", err)
	}
	if agg.EventCount != 0 || agg.Score != 0 {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestAggregateStoreFailureSurfaces(t *testing.T) {
	s := store.NewMemoryStore()
	s.SetErr(store.ErrUnavailable)
	a := NewAggregator(s, 4)

	now := time.Now().UTC()
	window := models.TimeWindow{Start: now.Add(-time.Hour), End: now}

	_, err := a.Aggregate(context.Background(), nil, "s-1", window)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable, never a silent zero", err)
	}
}

func TestAggregateManyPreservesOrder(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: now.Add(-24 * time.Hour), End: now}

	var ids []string
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("e-%02d", i)
		ids = append(ids, id)
		for j := 0; j <= i; j++ {
			seedEvent(t, s, models.EntityPhoto, id, models.ActionView, 1, now.Add(-time.Hour))
		}
	}

	a := NewAggregator(s, 5)
	aggs, err := a.AggregateMany(context.Background(), nil, ids, window)
	if err != nil {
		t.Fatalf("aggregate many failed: %v", err)
	}

	if len(aggs) != len(ids) {
		t.Fatalf("got %d results, want %d", len(aggs), len(ids))
	}
	for i, agg := range aggs {
		if agg.EntityID != ids[i] {
			t.Errorf("result %d = %q, want %q (input order)", i, agg.EntityID, ids[i])
		}
		if agg.Score != i+1 {
			t.Errorf("result %d score = %d, want %d", i, agg.Score, i+1)
		}
	}
}

func TestAggregateManyAllOrNothing(t *testing.T) {
	s := store.NewMemoryStore()
	s.SetErr(errors.New("backend gone"))
	a := NewAggregator(s, 4)

	now := time.Now().UTC()
	window := models.TimeWindow{Start: now.Add(-time.Hour), End: now}

	aggs, err := a.AggregateMany(context.Background(), nil, []string{"a", "b", "c"}, window)
	if err == nil {
		t.Fatal("expected failure to propagate")
	}
	if aggs != nil {
		t.Errorf("partial results returned alongside error: %v", aggs)
	}
}

func TestAggregateManyEmptyInput(t *testing.T) {
	a := NewAggregator(store.NewMemoryStore(), 4)

	aggs, err := a.AggregateMany(context.Background(), nil, nil, models.TimeWindow{})
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if len(aggs) != 0 {
		t.Errorf("got %v, want empty", aggs)
	}
}
