// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/trending"
	"github.com/townpulse/townpulse/internal/validation"
)

// maxBodyBytes caps the ingest request body. Engagement payloads are tiny;
// anything larger is abuse.
const maxBodyBytes = 16 * 1024

// EngagementEventRequest is the POST body for recording an engagement event.
// SessionID and Metadata are optional; both are stored opaque.
type EngagementEventRequest struct {
	EntityType string                 `json:"entity_type" validate:"required,entity_type"`
	EntityID   string                 `json:"entity_id" validate:"required,max=256"`
	Action     string                 `json:"action" validate:"required,action"`
	UserID     string                 `json:"user_id" validate:"omitempty,max=256"`
	SessionID  string                 `json:"session_id" validate:"omitempty,max=256"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// decodeEngagementEventRequest parses and structurally validates the ingest
// body. Returns a RequestValidationError for malformed field values so the
// handler can emit the standard validation response shape.
func decodeEngagementEventRequest(r *http.Request) (EngagementEventRequest, *validation.RequestValidationError) {
	var req EngagementEventRequest

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, validation.NewRequestValidationError("body", "json", fmt.Sprintf("invalid JSON body: %v", err))
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		return req, verr
	}

	return req, nil
}

// TrendingQuery holds the parsed query parameters of GET /trending.
type TrendingQuery struct {
	Period     trending.Period
	EntityType *models.EntityType
	Limit      int
}

// parseTrendingQuery validates period, type and limit query parameters.
// Absent parameters take their documented defaults; malformed values are
// rejected rather than silently coerced.
func parseTrendingQuery(r *http.Request) (TrendingQuery, *validation.RequestValidationError) {
	var q TrendingQuery

	period, err := trending.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return q, validation.NewRequestValidationError("period", "oneof", err.Error())
	}
	q.Period = period

	// "all" matches every entity type, same as omitting the filter.
	if raw := r.URL.Query().Get("type"); raw != "" && raw != "all" {
		entityType := models.EntityType(raw)
		if !entityType.Valid() {
			return q, validation.NewRequestValidationError("type", "entity_type",
				fmt.Sprintf("unknown entity type %q", raw))
		}
		q.EntityType = &entityType
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return q, validation.NewRequestValidationError("limit", "min",
				fmt.Sprintf("limit must be a positive integer, got %q", raw))
		}
		q.Limit = limit
	}

	return q, nil
}
