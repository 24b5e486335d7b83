// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package services

import (
	"context"
)

// ContextRunner matches components exposing a context-bound run loop, such
// as the WebSocket hub and the live engagement feed. Using an interface here
// avoids importing the websocket package and keeps the wrappers mockable.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// ContextRunnerService wraps any ContextRunner as a supervised service.
type ContextRunnerService struct {
	runner ContextRunner
	name   string
}

// NewWebSocketHubService wraps the WebSocket hub for supervision.
func NewWebSocketHubService(hub ContextRunner) *ContextRunnerService {
	return &ContextRunnerService{runner: hub, name: "websocket-hub"}
}

// NewLiveFeedService wraps the bus-to-websocket live feed for supervision.
func NewLiveFeedService(feed ContextRunner) *ContextRunnerService {
	return &ContextRunnerService{runner: feed, name: "live-feed"}
}

// Serve implements suture.Service by delegating to the wrapped run loop,
// which returns when the context is canceled.
func (s *ContextRunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *ContextRunnerService) String() string {
	return s.name
}
