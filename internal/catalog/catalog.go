// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package catalog resolves the candidate entity set for trending
// queries. A deployment with a known entity inventory configures a
// static catalog; without one, candidates are discovered from events
// active in the current window.
package catalog

import (
	"context"
	"sort"

	"github.com/townpulse/townpulse/internal/models"
)

// Catalog enumerates known entity ids, optionally narrowed to a type.
type Catalog interface {
	EntityIDs(ctx context.Context, entityType *models.EntityType) ([]string, error)
}

// Static is a fixed catalog loaded from configuration.
type Static struct {
	byType map[models.EntityType][]string
}

// NewStatic builds a static catalog. Input slices are copied and
// sorted so enumeration order is deterministic.
func NewStatic(entries map[models.EntityType][]string) *Static {
	byType := make(map[models.EntityType][]string, len(entries))
	for et, ids := range entries {
		copied := make([]string, len(ids))
		copy(copied, ids)
		sort.Strings(copied)
		byType[et] = copied
	}
	return &Static{byType: byType}
}

// EntityIDs returns the configured ids for one type, or for all types
// merged when entityType is nil.
func (s *Static) EntityIDs(_ context.Context, entityType *models.EntityType) ([]string, error) {
	if entityType != nil {
		ids := s.byType[*entityType]
		out := make([]string, len(ids))
		copy(out, ids)
		return out, nil
	}

	seen := make(map[string]struct{})
	var all []string
	for _, ids := range s.byType {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
		}
	}
	sort.Strings(all)
	return all, nil
}

// Len returns the total number of configured ids across all types.
func (s *Static) Len() int {
	n := 0
	for _, ids := range s.byType {
		n += len(ids)
	}
	return n
}
