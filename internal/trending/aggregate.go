// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"context"
	"fmt"
	"sync"

	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/store"
)

// defaultWorkers bounds AggregateMany fan-out when unconfigured.
const defaultWorkers = 8

// Aggregator rolls engagement events up into per-entity window
// aggregates.
type Aggregator struct {
	store   store.EventStore
	workers int
}

// NewAggregator creates an aggregator reading from the given store.
// workers bounds concurrent per-entity queries; <=0 uses the default.
func NewAggregator(eventStore store.EventStore, workers int) *Aggregator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Aggregator{store: eventStore, workers: workers}
}

// Aggregate computes one entity's event count, score sum, and
// per-action counts inside the half-open window. An entity with no
// events yields a zero aggregate; only a store failure is an error.
func (a *Aggregator) Aggregate(ctx context.Context, entityType *models.EntityType, entityID string, window models.TimeWindow) (models.WindowAggregate, error) {
	events, err := a.store.Query(ctx, store.QueryFilter{
		EntityType: entityType,
		EntityID:   entityID,
		Window:     window,
	})
	if err != nil {
		return models.WindowAggregate{}, fmt.Errorf("aggregate %s: %w", entityID, err)
	}

	agg := models.WindowAggregate{
		EntityID:        entityID,
		Window:          window,
		PerActionCounts: make(map[models.Action]int),
	}
	if entityType != nil {
		agg.EntityType = *entityType
	}

	for _, ev := range events {
		agg.EventCount++
		agg.Score += ev.Points
		agg.PerActionCounts[ev.Action]++
		if agg.EntityType == "" {
			agg.EntityType = ev.EntityType
		}
	}

	return agg, nil
}

// AggregateMany aggregates every entity id over a bounded worker pool.
// Results preserve input order. Any entity failing fails the whole
// call; partial results are never returned.
func (a *Aggregator) AggregateMany(ctx context.Context, entityType *models.EntityType, entityIDs []string, window models.TimeWindow) ([]models.WindowAggregate, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]models.WindowAggregate, len(entityIDs))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	workers := a.workers
	if workers > len(entityIDs) {
		workers = len(entityIDs)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				agg, err := a.Aggregate(ctx, entityType, entityIDs[i], window)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				results[i] = agg
			}
		}()
	}

feed:
	for i := range entityIDs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
