// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8480 {
		t.Errorf("server port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.RateLimit.ViewLimit != 100 || cfg.RateLimit.InteractLimit != 30 {
		t.Errorf("rate limits = %d/%d, want 100/30", cfg.RateLimit.ViewLimit, cfg.RateLimit.InteractLimit)
	}
	if cfg.RateLimit.Window != 60*time.Second {
		t.Errorf("rate limit window = %v, want 60s", cfg.RateLimit.Window)
	}
	if cfg.Trending.DeadBand != 5.0 {
		t.Errorf("dead band = %v, want 5.0", cfg.Trending.DeadBand)
	}
	if cfg.Trending.DefaultLimit != 20 || cfg.Trending.MaxLimit != 100 {
		t.Errorf("trending limits = %d/%d, want 20/100", cfg.Trending.DefaultLimit, cfg.Trending.MaxLimit)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TOWNPULSE_SERVER_PORT", "9001")
	t.Setenv("TOWNPULSE_RATE_LIMIT_VIEW_LIMIT", "50")
	t.Setenv("TOWNPULSE_TRENDING_CACHE_TTL", "30s")
	t.Setenv("TOWNPULSE_SECURITY_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TOWNPULSE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("server port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.RateLimit.ViewLimit != 50 {
		t.Errorf("view limit = %d, want 50", cfg.RateLimit.ViewLimit)
	}
	if cfg.Trending.CacheTTL != 30*time.Second {
		t.Errorf("cache ttl = %v, want 30s", cfg.Trending.CacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadUnknownEnvIgnored(t *testing.T) {
	t.Setenv("TOWNPULSE_NOT_A_REAL_KEY", "boom")

	if _, err := Load(); err != nil {
		t.Fatalf("Load with unknown env var: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: 8900
trending:
  dead_band: 7.5
catalog:
  entities:
    shop:
      - shop-1
      - shop-2
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8900 {
		t.Errorf("server port = %d, want 8900", cfg.Server.Port)
	}
	if cfg.Trending.DeadBand != 7.5 {
		t.Errorf("dead band = %v, want 7.5", cfg.Trending.DeadBand)
	}
	if got := cfg.Catalog.Entities["shop"]; len(got) != 2 || got[0] != "shop-1" {
		t.Errorf("catalog shops = %v", got)
	}
	// Untouched sections keep their defaults.
	if cfg.RateLimit.ViewLimit != 100 {
		t.Errorf("view limit = %d, want default 100", cfg.RateLimit.ViewLimit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"bad port":          func(c *Config) { c.Server.Port = 0 },
		"empty db path":     func(c *Config) { c.Database.Path = "" },
		"zero window":       func(c *Config) { c.RateLimit.Window = 0 },
		"zero view limit":   func(c *Config) { c.RateLimit.ViewLimit = 0 },
		"negative deadband": func(c *Config) { c.Trending.DeadBand = -1 },
		"max under default": func(c *Config) { c.Trending.MaxLimit = 5 },
		"zero workers":      func(c *Config) { c.Trending.Workers = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}
