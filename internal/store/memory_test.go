// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package store

import (
	"context"
	"testing"
	"time"

	"github.com/townpulse/townpulse/internal/models"
)

func makeEvent(entityType models.EntityType, entityID string, action models.Action, points int, at time.Time) models.EngagementEvent {
	ev := models.NewEngagementEvent(entityType, entityID, action, "")
	ev.Points = points
	ev.OccurredAt = at
	return ev
}

func TestMemoryStoreQueryWindowBoundaries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	atStart := makeEvent(models.EntityShop, "s-1", models.ActionView, 1, start)
	beforeEnd := makeEvent(models.EntityShop, "s-1", models.ActionView, 1, end.Add(-time.Second))
	atEnd := makeEvent(models.EntityShop, "s-1", models.ActionView, 1, end)
	beforeStart := makeEvent(models.EntityShop, "s-1", models.ActionView, 1, start.Add(-time.Second))

	for _, ev := range []models.EngagementEvent{atStart, beforeEnd, atEnd, beforeStart} {
		if err := s.Append(ctx, ev); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	events, err := s.Query(ctx, QueryFilter{Window: models.TimeWindow{Start: start, End: end}})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (start inclusive, end exclusive)", len(events))
	}
	if events[0].ID != atStart.ID || events[1].ID != beforeEnd.ID {
		t.Errorf("unexpected events in window: %v", events)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-1", models.ActionView, 1, now))
	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-2", models.ActionLike, 2, now))
	_ = s.Append(ctx, makeEvent(models.EntityCharity, "c-1", models.ActionView, 1, now))

	shop := models.EntityShop
	events, err := s.Query(ctx, QueryFilter{EntityType: &shop, Window: window})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("type filter: got %d events, want 2", len(events))
	}

	events, err = s.Query(ctx, QueryFilter{EntityType: &shop, EntityID: "s-2", Window: window})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 || events[0].EntityID != "s-2" {
		t.Errorf("id filter: got %v, want single s-2 event", events)
	}
}

func TestMemoryStoreDistinctEntityIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-2", models.ActionView, 1, now))
	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-1", models.ActionView, 1, now))
	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-1", models.ActionLike, 2, now))
	_ = s.Append(ctx, makeEvent(models.EntityCharity, "c-1", models.ActionView, 1, now))
	_ = s.Append(ctx, makeEvent(models.EntityShop, "s-3", models.ActionView, 1, now.Add(2*time.Hour)))

	ids, err := s.DistinctEntityIDs(ctx, nil, window)
	if err != nil {
		t.Fatalf("distinct failed: %v", err)
	}
	want := []string{"c-1", "s-1", "s-2"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q (sorted)", i, ids[i], want[i])
		}
	}

	shop := models.EntityShop
	ids, err = s.DistinctEntityIDs(ctx, &shop, window)
	if err != nil {
		t.Fatalf("distinct failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "s-1" || ids[1] != "s-2" {
		t.Errorf("typed distinct: got %v, want [s-1 s-2]", ids)
	}
}

func TestMemoryStoreForcedError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SetErr(ErrUnavailable)

	if err := s.Append(ctx, makeEvent(models.EntityShop, "s-1", models.ActionView, 1, time.Now())); err == nil {
		t.Error("append should fail with forced error")
	}
	if _, err := s.Query(ctx, QueryFilter{}); err == nil {
		t.Error("query should fail with forced error")
	}

	s.SetErr(nil)
	if err := s.Ping(ctx); err != nil {
		t.Errorf("ping should recover after clearing error: %v", err)
	}
}
