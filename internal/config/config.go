// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package config loads layered application configuration: built-in
// defaults, an optional YAML file, then TOWNPULSE_-prefixed environment
// variables, in increasing priority.
package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Trending  TrendingConfig  `koanf:"trending"`
	Bus       BusConfig       `koanf:"bus"`
	Security  SecurityConfig  `koanf:"security"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`
}

// BreakerConfig holds circuit breaker settings for the event store.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	Timeout          time.Duration `koanf:"timeout"`
	MaxRequests      uint32        `koanf:"max_requests"`
}

// RateLimitConfig holds per-caller admission limits.
type RateLimitConfig struct {
	Window        time.Duration `koanf:"window"`
	ViewLimit     int64         `koanf:"view_limit"`
	InteractLimit int64         `koanf:"interact_limit"`
	MaxCallers    int           `koanf:"max_callers"`
	InactiveAfter time.Duration `koanf:"inactive_after"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// TrendingConfig holds trending computation settings.
type TrendingConfig struct {
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	Workers      int           `koanf:"workers"`
	DeadBand     float64       `koanf:"dead_band"`
}

// BusConfig holds in-process event bus settings.
type BusConfig struct {
	Buffer int64 `koanf:"buffer"`
}

// SecurityConfig holds HTTP edge settings.
type SecurityConfig struct {
	CORSOrigins    []string      `koanf:"cors_origins"`
	HTTPRateLimit  int           `koanf:"http_rate_limit"`
	HTTPRateWindow time.Duration `koanf:"http_rate_window"`
}

// CatalogConfig optionally enumerates the known entities per type. When
// empty, trending discovers candidates from events seen in the window.
type CatalogConfig struct {
	Entities map[string][]string `koanf:"entities"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
	}
	if c.RateLimit.ViewLimit < 1 {
		return fmt.Errorf("rate_limit.view_limit must be at least 1, got %d", c.RateLimit.ViewLimit)
	}
	if c.RateLimit.InteractLimit < 1 {
		return fmt.Errorf("rate_limit.interact_limit must be at least 1, got %d", c.RateLimit.InteractLimit)
	}
	if c.Trending.DefaultLimit < 1 {
		return fmt.Errorf("trending.default_limit must be at least 1, got %d", c.Trending.DefaultLimit)
	}
	if c.Trending.MaxLimit < c.Trending.DefaultLimit {
		return fmt.Errorf("trending.max_limit %d is below trending.default_limit %d",
			c.Trending.MaxLimit, c.Trending.DefaultLimit)
	}
	if c.Trending.DeadBand < 0 {
		return fmt.Errorf("trending.dead_band must not be negative, got %v", c.Trending.DeadBand)
	}
	if c.Trending.Workers < 1 {
		return fmt.Errorf("trending.workers must be at least 1, got %d", c.Trending.Workers)
	}
	return nil
}
