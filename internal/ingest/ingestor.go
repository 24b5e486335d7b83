// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package ingest runs the event write path: validate, rate-limit,
// stamp points, append to the durable store, then fan out to live
// consumers. The append is synchronous; the caller never gets an
// acknowledgement for an event the store did not take.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/townpulse/townpulse/internal/bus"
	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/metrics"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/ratelimit"
	"github.com/townpulse/townpulse/internal/scoring"
	"github.com/townpulse/townpulse/internal/store"
	"github.com/townpulse/townpulse/internal/validation"
)

// Receipt acknowledges one accepted event.
type Receipt struct {
	EventID       string `json:"event_id"`
	PointsAwarded int    `json:"points_awarded"`
	WeightVersion string `json:"weight_version"`
}

// Request describes one incoming engagement event. SessionID and
// Metadata are optional and pass through opaque.
type Request struct {
	EntityType models.EntityType
	EntityID   string
	Action     models.Action
	UserID     string
	SessionID  string
	Metadata   map[string]interface{}
}

// Ingestor accepts engagement events.
type Ingestor struct {
	store   store.EventStore
	limiter *ratelimit.Limiter
	weights *scoring.WeightTable
	bus     *bus.Bus

	// appendTimeout bounds the durable write.
	appendTimeout time.Duration
}

// New creates an ingestor. eventBus may be nil; live fan-out is then
// disabled.
func New(eventStore store.EventStore, limiter *ratelimit.Limiter, weights *scoring.WeightTable, eventBus *bus.Bus, appendTimeout time.Duration) *Ingestor {
	if appendTimeout <= 0 {
		appendTimeout = 5 * time.Second
	}
	return &Ingestor{
		store:         eventStore,
		limiter:       limiter,
		weights:       weights,
		bus:           eventBus,
		appendTimeout: appendTimeout,
	}
}

// Ingest runs the full write path for one event. Errors keep their
// concrete types so the API layer can map them:
// *validation.RequestValidationError, *ratelimit.RateLimitedError, or
// a store.ErrUnavailable wrap.
func (in *Ingestor) Ingest(ctx context.Context, callerKey string, req Request) (Receipt, error) {
	if verr := validation.ValidateEvent(req.EntityType, req.EntityID, req.Action); verr != nil {
		metrics.RecordRejected("validation")
		return Receipt{}, verr
	}

	if err := in.limiter.Allow(callerKey, req.Action); err != nil {
		metrics.RecordRejected("rate_limited")
		return Receipt{}, err
	}

	event := models.NewEngagementEvent(req.EntityType, req.EntityID, req.Action, req.UserID)
	event.SessionID = req.SessionID
	event.Metadata = req.Metadata
	event.Points = in.weights.Weight(req.Action)

	appendCtx, cancel := context.WithTimeout(ctx, in.appendTimeout)
	defer cancel()

	start := time.Now()
	err := in.store.Append(appendCtx, event)
	metrics.RecordStoreOperation("append", time.Since(start), err)
	if err != nil {
		metrics.RecordRejected("store_unavailable")
		return Receipt{}, fmt.Errorf("append event: %w", err)
	}

	// Best-effort fan-out; the event is already durable.
	if in.bus != nil {
		if err := in.bus.PublishEvent(event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("event_id", event.ID).
				Msg("live fan-out failed for accepted event")
		}
	}

	metrics.RecordAccepted(string(event.EntityType), string(event.Action), event.Points)
	metrics.RateLimitedCallers.Set(float64(in.limiter.Len()))

	logging.Ctx(ctx).Debug().
		Str("event_id", event.ID).
		Str("entity_type", string(event.EntityType)).
		Str("entity_id", event.EntityID).
		Str("action", string(event.Action)).
		Int("points", event.Points).
		Msg("event accepted")

	return Receipt{
		EventID:       event.ID,
		PointsAwarded: event.Points,
		WeightVersion: in.weights.Version(),
	}, nil
}
