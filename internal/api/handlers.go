// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/townpulse/townpulse/internal/ingest"
	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/metrics"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/ratelimit"
	"github.com/townpulse/townpulse/internal/store"
	"github.com/townpulse/townpulse/internal/trending"
	"github.com/townpulse/townpulse/internal/validation"
	ws "github.com/townpulse/townpulse/internal/websocket"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	ingestor       *ingest.Ingestor
	trending       *trending.Service
	store          store.EventStore
	wsHub          *ws.Hub
	allowedOrigins []string
	startTime      time.Time
}

// NewHandler creates a new API handler. wsHub may be nil; the live endpoint
// then responds 503.
func NewHandler(ingestor *ingest.Ingestor, trendingSvc *trending.Service, eventStore store.EventStore, wsHub *ws.Hub, allowedOrigins []string) *Handler {
	return &Handler{
		ingestor:       ingestor,
		trending:       trendingSvc,
		store:          eventStore,
		wsHub:          wsHub,
		allowedOrigins: allowedOrigins,
		startTime:      time.Now(),
	}
}

// EngagementEventResponse acknowledges one recorded engagement event.
type EngagementEventResponse struct {
	Accepted      bool   `json:"accepted"`
	EventID       string `json:"event_id"`
	PointsAwarded int    `json:"points_awarded"`
	WeightVersion string `json:"weight_version"`
}

// IngestEvent handles POST /api/v1/engagement-events.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, verr := decodeEngagementEventRequest(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	receipt, err := h.ingestor.Ingest(r.Context(), callerKey(r), ingest.Request{
		EntityType: models.EntityType(req.EntityType),
		EntityID:   req.EntityID,
		Action:     models.Action(req.Action),
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.writeIngestError(rw, r, err)
		return
	}

	rw.Created(EngagementEventResponse{
		Accepted:      true,
		EventID:       receipt.EventID,
		PointsAwarded: receipt.PointsAwarded,
		WeightVersion: receipt.WeightVersion,
	})
}

// writeIngestError maps ingest failures onto the error taxonomy.
func (h *Handler) writeIngestError(rw *ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	var rle *ratelimit.RateLimitedError
	if errors.As(err, &rle) {
		rw.RateLimited(rle.Error(), rle.RetryAfterSeconds())
		return
	}

	if errors.Is(err, store.ErrUnavailable) {
		logging.CtxErr(r.Context(), err).Msg("event rejected, store unavailable")
		rw.StoreUnavailable()
		return
	}

	logging.CtxErr(r.Context(), err).Msg("event rejected")
	rw.InternalError("Failed to record engagement event")
}

// Trending handles GET /api/v1/trending.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, verr := parseTrendingQuery(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	start := time.Now()
	results, err := h.trending.Query(r.Context(), q.Period, q.EntityType, q.Limit)
	if err != nil {
		logging.CtxErr(r.Context(), err).Str("period", string(q.Period)).Msg("trending query failed")
		rw.TrendingUnavailable()
		return
	}
	metrics.RecordTrendingQuery(string(q.Period), time.Since(start))

	if results == nil {
		results = []models.TrendResult{}
	}
	rw.Success(map[string]interface{}{
		"period":  q.Period,
		"results": results,
	})
}

// Health handles GET /health. Reports overall status with store connectivity;
// a degraded store still returns 200 so load balancers keep routing reads
// that can be served from cache.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	storeConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !storeConnected {
		status = "degraded"
	}

	rw.Success(map[string]interface{}{
		"status":          status,
		"store_connected": storeConnected,
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles GET /health/live. Returns 200 if the process is alive,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. Returns 200 only when the event
// store answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.store == nil || h.store.Ping(r.Context()) != nil {
		rw.ServiceUnavailable("Event store is not ready")
		return
	}

	rw.Success(map[string]interface{}{"ready": true})
}

// Live handles GET /api/v1/live, upgrading to a WebSocket that streams
// accepted engagement events.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("websocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("Live feed unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
// Browser WebSockets always include Origin; an empty header means a
// non-browser client and is allowed through (CORS does not apply to it).
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}
