// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/townpulse/townpulse/internal/cache"
	"github.com/townpulse/townpulse/internal/catalog"
	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/models"
	"github.com/townpulse/townpulse/internal/store"
)

// ErrUnavailable indicates the trending board could not be computed in
// full. Partial boards are never served.
var ErrUnavailable = errors.New("trending unavailable")

// ServiceConfig tunes the trending query façade.
type ServiceConfig struct {
	// CacheTTL bounds board staleness; boards expire, they are never
	// invalidated by writes.
	CacheTTL time.Duration

	// DefaultLimit applies when a query names no limit.
	DefaultLimit int

	// MaxLimit caps any requested limit.
	MaxLimit int

	// QueryTimeout bounds one full board computation.
	QueryTimeout time.Duration

	// Workers bounds aggregation fan-out.
	Workers int

	// DeadBand is the steady threshold in percent.
	DeadBand float64
}

// DefaultServiceConfig returns standard façade settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CacheTTL:     60 * time.Second,
		DefaultLimit: 20,
		MaxLimit:     100,
		QueryTimeout: 10 * time.Second,
		Workers:      defaultWorkers,
		DeadBand:     DefaultDeadBand,
	}
}

// Service answers trending queries. It resolves candidates, aggregates
// the current and prior windows, classifies movement, ranks, and
// paginates. Boards are cached per period and type filter.
type Service struct {
	aggregator *Aggregator
	store      store.EventStore
	catalog    catalog.Catalog
	boards     *cache.Cache
	calc       Calculator
	cfg        ServiceConfig

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the trending façade. cat may be nil, in which
// case candidates are discovered from events in the current window.
func NewService(eventStore store.EventStore, cat catalog.Catalog, cfg ServiceConfig) *Service {
	def := DefaultServiceConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}

	return &Service{
		aggregator: NewAggregator(eventStore, cfg.Workers),
		store:      eventStore,
		catalog:    cat,
		boards:     cache.New(cfg.CacheTTL),
		calc:       NewCalculator(cfg.DeadBand),
		cfg:        cfg,
		now:        time.Now,
	}
}

// boardKey identifies one cached board.
type boardKey struct {
	Period Period `json:"period"`
	Type   string `json:"type"`
}

// Query returns the trending board for the period, optionally filtered
// to one entity type, truncated to limit rows. Ranks are computed over
// the full filtered set before the limit applies, so page boundaries
// never change an entity's rank.
func (s *Service) Query(ctx context.Context, period Period, entityType *models.EntityType, limit int) ([]models.TrendResult, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	board, err := s.board(ctx, period, entityType)
	if err != nil {
		return nil, err
	}

	if limit < len(board) {
		board = board[:limit]
	}

	// Copy so one caller's slice can't alias the cached board.
	out := make([]models.TrendResult, len(board))
	copy(out, board)
	return out, nil
}

// board returns the full ranked board, from cache when fresh.
func (s *Service) board(ctx context.Context, period Period, entityType *models.EntityType) ([]models.TrendResult, error) {
	typeKey := ""
	if entityType != nil {
		typeKey = string(*entityType)
	}
	key := cache.GenerateKey("trending", boardKey{Period: period, Type: typeKey})

	if cached, ok := s.boards.Get(key); ok {
		if board, ok := cached.([]models.TrendResult); ok {
			return board, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	board, err := s.compute(ctx, period, entityType)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("period", string(period)).
			Str("entity_type", typeKey).
			Msg("trending board computation failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.boards.Set(key, board)
	return board, nil
}

// compute builds the full board for one period and filter.
func (s *Service) compute(ctx context.Context, period Period, entityType *models.EntityType) ([]models.TrendResult, error) {
	current, prior := period.Windows(s.now().UTC())

	candidates, err := s.candidates(ctx, entityType, current)
	if err != nil {
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []models.TrendResult{}, nil
	}

	currentAggs, err := s.aggregator.AggregateMany(ctx, entityType, candidates, current)
	if err != nil {
		return nil, fmt.Errorf("current window: %w", err)
	}
	priorAggs, err := s.aggregator.AggregateMany(ctx, entityType, candidates, prior)
	if err != nil {
		return nil, fmt.Errorf("prior window: %w", err)
	}

	results := make([]models.TrendResult, 0, len(candidates))
	for i := range candidates {
		cur := currentAggs[i]
		prev := priorAggs[i]

		direction, changePct := s.calc.Classify(cur.Score, prev.Score)

		et := cur.EntityType
		if et == "" {
			et = prev.EntityType
		}

		results = append(results, models.TrendResult{
			EntityType: et,
			EntityID:   cur.EntityID,
			Score:      cur.Score,
			EventCount: cur.EventCount,
			PriorScore: prev.Score,
			ChangePct:  changePct,
			Direction:  direction,
		})
	}

	return Rank(results), nil
}

// candidates resolves the entity set for a board: the catalog when one
// is configured, otherwise every entity active in the current window.
func (s *Service) candidates(ctx context.Context, entityType *models.EntityType, current models.TimeWindow) ([]string, error) {
	if s.catalog != nil {
		return s.catalog.EntityIDs(ctx, entityType)
	}
	return s.store.DistinctEntityIDs(ctx, entityType, current)
}

// CacheStats exposes board cache statistics for observability.
func (s *Service) CacheStats() cache.Stats {
	return s.boards.GetStats()
}

// SetNow overrides the clock. Test hook.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}
