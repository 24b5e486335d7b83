// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package metrics provides Prometheus instrumentation for ingestion,
// trending queries, the event store, and the live feed.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townpulse_events_accepted_total",
			Help: "Total engagement events accepted",
		},
		[]string{"entity_type", "action"},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townpulse_events_rejected_total",
			Help: "Total engagement events rejected",
		},
		[]string{"reason"}, // "validation", "rate_limited", "store_unavailable"
	)

	PointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townpulse_points_awarded_total",
			Help: "Total points stamped onto accepted events",
		},
		[]string{"entity_type", "action"},
	)

	// Rate limiter metrics
	RateLimitedCallers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "townpulse_ratelimit_tracked_callers",
			Help: "Callers currently tracked by the ingestion rate limiter",
		},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "townpulse_store_operation_duration_seconds",
			Help:    "Duration of event store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "townpulse_store_errors_total",
			Help: "Total event store operation failures",
		},
		[]string{"operation"},
	)

	// Trending metrics
	TrendingQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "townpulse_trending_query_duration_seconds",
			Help:    "Duration of trending board queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period"},
	)

	TrendingBoardCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townpulse_trending_cache_hits_total",
			Help: "Trending board cache hits",
		},
	)

	TrendingBoardCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townpulse_trending_cache_misses_total",
			Help: "Trending board cache misses",
		},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "townpulse_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "townpulse_http_active_requests",
			Help: "HTTP requests currently in flight",
		},
	)

	// Live feed metrics
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "townpulse_websocket_clients",
			Help: "Connected live feed websocket clients",
		},
	)

	WebsocketBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "townpulse_websocket_broadcasts_total",
			Help: "Events broadcast to the live feed",
		},
	)
)

// RecordAccepted records one accepted event and its stamped points.
func RecordAccepted(entityType, action string, points int) {
	EventsAccepted.WithLabelValues(entityType, action).Inc()
	PointsAwarded.WithLabelValues(entityType, action).Add(float64(points))
}

// RecordRejected records one rejected event by reason.
func RecordRejected(reason string) {
	EventsRejected.WithLabelValues(reason).Inc()
}

// RecordStoreOperation records one store operation's latency and outcome.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordTrendingQuery records one trending board query.
func RecordTrendingQuery(period string, duration time.Duration) {
	TrendingQueryDuration.WithLabelValues(period).Observe(duration.Seconds())
}
