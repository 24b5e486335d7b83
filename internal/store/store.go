// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package store persists engagement events. The production backend is
// DuckDB; an in-memory implementation backs tests. Consumers should
// wrap the backend with NewBreakerStore so backend failures trip fast
// instead of piling up.
package store

import (
	"context"
	"errors"

	"github.com/townpulse/townpulse/internal/models"
)

// ErrUnavailable indicates the event store cannot currently serve the
// request. Callers must surface it, never substitute empty results.
var ErrUnavailable = errors.New("event store unavailable")

// QueryFilter selects events for reads. Window is required and
// half-open; EntityType and EntityID narrow the result when set.
type QueryFilter struct {
	EntityType *models.EntityType
	EntityID   string
	Window     models.TimeWindow
}

// EventStore is the persistence contract for engagement events.
type EventStore interface {
	// Append durably records one event. The event's Points must already
	// be stamped; the store never recomputes them.
	Append(ctx context.Context, event models.EngagementEvent) error

	// Query returns all events matching the filter. An empty result is
	// a valid answer, not an error.
	Query(ctx context.Context, filter QueryFilter) ([]models.EngagementEvent, error)

	// DistinctEntityIDs returns the ids of entities with at least one
	// event in the window, optionally narrowed to one entity type.
	DistinctEntityIDs(ctx context.Context, entityType *models.EntityType, window models.TimeWindow) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
