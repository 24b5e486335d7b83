// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/townpulse/townpulse/internal/middleware"
)

// RouterConfig holds the HTTP-edge configuration of the router.
type RouterConfig struct {
	// CORSAllowedOrigins is empty by default, requiring explicit
	// configuration. This prevents accidental deployment with wildcard CORS.
	CORSAllowedOrigins []string

	// HTTPRateLimit is the per-IP edge limit applied before the
	// per-caller engagement limiter. Zero disables it.
	HTTPRateLimit  int
	HTTPRateWindow time.Duration
}

// DefaultRouterConfig returns a secure default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{},
		HTTPRateLimit:      300,
		HTTPRateWindow:     time.Minute,
	}
}

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler *Handler
	config  RouterConfig
}

// NewRouter creates a Router for the given handler.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup configures all HTTP routes using the Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Caller-ID", "X-Request-ID"},
		MaxAge:         86400,
	}))

	// Health endpoints get a permissive per-IP limit so monitoring can poll
	// frequently without opening an abuse vector.
	r.Route("/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Use(middleware.SecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if router.config.HTTPRateLimit > 0 {
			r.Use(httprate.LimitByRealIP(router.config.HTTPRateLimit, router.config.HTTPRateWindow))
		}
		r.Use(middleware.SecurityHeaders())
		r.Use(middleware.PrometheusMetrics())

		r.Post("/engagement-events", router.handler.IngestEvent)
		r.Get("/trending", router.handler.Trending)
		r.Get("/live", router.handler.Live)
	})

	return r
}
