// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/townpulse/townpulse/internal/models"
)

// MemoryStore is an in-memory EventStore. It backs tests and small
// single-node deployments that do not need durability.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.EngagementEvent
	err    error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetErr forces all subsequent operations to fail with err. Pass nil
// to restore normal behavior. Used to exercise failure paths in tests.
func (m *MemoryStore) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Append records one event.
func (m *MemoryStore) Append(_ context.Context, event models.EngagementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// Query returns events matching the filter ordered by occurred_at.
func (m *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]models.EngagementEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	var matched []models.EngagementEvent
	for _, ev := range m.events {
		if !filter.Window.Contains(ev.OccurredAt) {
			continue
		}
		if filter.EntityType != nil && ev.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != "" && ev.EntityID != filter.EntityID {
			continue
		}
		matched = append(matched, ev)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OccurredAt.Before(matched[j].OccurredAt)
	})
	return matched, nil
}

// DistinctEntityIDs returns sorted ids of entities active in the window.
func (m *MemoryStore) DistinctEntityIDs(_ context.Context, entityType *models.EntityType, window models.TimeWindow) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	seen := make(map[string]struct{})
	for _, ev := range m.events {
		if !window.Contains(ev.OccurredAt) {
			continue
		}
		if entityType != nil && ev.EntityType != *entityType {
			continue
		}
		seen[ev.EntityID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping reports the forced error, if any.
func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored events.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
