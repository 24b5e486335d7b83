// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package services

import (
	"context"
	"time"

	"github.com/townpulse/townpulse/internal/logging"
)

// CallerSweeper matches the rate limiter's stale-caller eviction method.
type CallerSweeper interface {
	CleanupInactive() int
}

// SweeperService periodically evicts inactive callers from the rate
// limiter so its memory stays bounded under caller churn.
type SweeperService struct {
	sweeper  CallerSweeper
	interval time.Duration
	name     string
}

// NewSweeperService creates a sweeper running at the given interval.
func NewSweeperService(sweeper CallerSweeper, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{
		sweeper:  sweeper,
		interval: interval,
		name:     "limiter-sweeper",
	}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log := logging.WithComponent(s.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.sweeper.CleanupInactive(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("evicted inactive callers")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *SweeperService) String() string {
	return s.name
}
