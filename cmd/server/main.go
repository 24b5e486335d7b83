// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Command server runs the TownPulse engagement and trending engine.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/townpulse/townpulse/internal/api"
	"github.com/townpulse/townpulse/internal/bus"
	"github.com/townpulse/townpulse/internal/catalog"
	"github.com/townpulse/townpulse/internal/config"
	"github.com/townpulse/townpulse/internal/ingest"
	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/ratelimit"
	"github.com/townpulse/townpulse/internal/scoring"
	"github.com/townpulse/townpulse/internal/store"
	"github.com/townpulse/townpulse/internal/supervisor"
	"github.com/townpulse/townpulse/internal/supervisor/services"
	"github.com/townpulse/townpulse/internal/trending"
	"github.com/townpulse/townpulse/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("listen_addr", cfg.Server.Addr()).
		Msg("Starting TownPulse")

	// Durable event store with circuit breaker protection.
	duckdb, err := store.NewDuckDBStore(store.DuckDBConfig{
		Path:      cfg.Database.Path,
		Threads:   cfg.Database.Threads,
		MaxMemory: cfg.Database.MaxMemory,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event store")
	}
	defer func() {
		if err := duckdb.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	eventStore := store.NewBreakerStore(duckdb, store.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          cfg.Breaker.Timeout,
		MaxRequests:      cfg.Breaker.MaxRequests,
	})
	logging.Info().Msg("Event store initialized")

	// Per-caller admission limits for the write path.
	limiter := ratelimit.New(ratelimit.Config{
		Window:        cfg.RateLimit.Window,
		ViewLimit:     cfg.RateLimit.ViewLimit,
		InteractLimit: cfg.RateLimit.InteractLimit,
		MaxCallers:    cfg.RateLimit.MaxCallers,
		InactiveAfter: cfg.RateLimit.InactiveAfter,
		SweepInterval: cfg.RateLimit.SweepInterval,
	})

	eventBus := bus.New(cfg.Bus.Buffer)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	ingestor := ingest.New(eventStore, limiter, scoring.DefaultWeights(), eventBus, 5*time.Second)

	// Optional static catalog; empty config means trending discovers
	// candidates from stored events.
	var cat catalog.Catalog
	if len(cfg.Catalog.Entities) > 0 {
		entries := make(map[models.EntityType][]string, len(cfg.Catalog.Entities))
		for rawType, ids := range cfg.Catalog.Entities {
			entityType := models.EntityType(rawType)
			if !entityType.Valid() {
				logging.Fatal().Str("entity_type", rawType).Msg("Unknown entity type in catalog config")
			}
			entries[entityType] = ids
		}
		static := catalog.NewStatic(entries)
		cat = static
		logging.Info().Int("entities", static.Len()).Msg("Static catalog loaded")
	}

	trendingSvc := trending.NewService(eventStore, cat, trending.ServiceConfig{
		CacheTTL:     cfg.Trending.CacheTTL,
		DefaultLimit: cfg.Trending.DefaultLimit,
		MaxLimit:     cfg.Trending.MaxLimit,
		QueryTimeout: cfg.Trending.QueryTimeout,
		Workers:      cfg.Trending.Workers,
		DeadBand:     cfg.Trending.DeadBand,
	})

	wsHub := websocket.NewHub()
	liveFeed := websocket.NewFeed(eventBus, wsHub)

	handler := api.NewHandler(ingestor, trendingSvc, eventStore, wsHub, cfg.Security.CORSOrigins)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		HTTPRateLimit:      cfg.Security.HTTPRateLimit,
		HTTPRateWindow:     cfg.Security.HTTPRateWindow,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewSweeperService(limiter, cfg.RateLimit.SweepInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewLiveFeedService(liveFeed))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("TownPulse stopped gracefully")
}
