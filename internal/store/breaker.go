// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/models"
)

// BreakerConfig tunes the circuit breaker around a backend store.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit.
	FailureThreshold uint32

	// Timeout is how long the circuit stays open before allowing a
	// half-open probe.
	Timeout time.Duration

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerConfig returns conservative breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
	}
}

// BreakerStore wraps an EventStore with a circuit breaker. Backend
// failures and an open circuit both surface as ErrUnavailable, so
// callers see one failure mode regardless of whether the store is down
// or being protected.
type BreakerStore struct {
	inner EventStore
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner EventStore, cfg BreakerConfig) *BreakerStore {
	if cfg.FailureThreshold == 0 {
		cfg = DefaultBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        "event-store",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// execute runs fn through the breaker and maps every failure onto
// ErrUnavailable while preserving the cause.
func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

// Append records one event through the breaker.
func (b *BreakerStore) Append(ctx context.Context, event models.EngagementEvent) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Append(ctx, event)
	})
	return err
}

// Query reads events through the breaker.
func (b *BreakerStore) Query(ctx context.Context, filter QueryFilter) ([]models.EngagementEvent, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Query(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	events, _ := result.([]models.EngagementEvent)
	return events, nil
}

// DistinctEntityIDs reads active entity ids through the breaker.
func (b *BreakerStore) DistinctEntityIDs(ctx context.Context, entityType *models.EntityType, window models.TimeWindow) ([]string, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.DistinctEntityIDs(ctx, entityType, window)
	})
	if err != nil {
		return nil, err
	}
	ids, _ := result.([]string)
	return ids, nil
}

// Ping probes the backend through the breaker.
func (b *BreakerStore) Ping(ctx context.Context) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Ping(ctx)
	})
	return err
}

// Close closes the underlying store. Not routed through the breaker.
func (b *BreakerStore) Close() error {
	return b.inner.Close()
}

// State returns the current breaker state for health reporting.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
