// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/townpulse/config.yaml",
	"/etc/townpulse/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix namespaces all environment overrides.
const EnvPrefix = "TOWNPULSE_"

// defaultConfig returns a Config with all defaults applied. These are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:      "/data/townpulse.duckdb",
			Threads:   0, // 0 = use runtime.NumCPU()
			MaxMemory: "1GB",
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      3,
		},
		RateLimit: RateLimitConfig{
			Window:        60 * time.Second,
			ViewLimit:     100,
			InteractLimit: 30,
			MaxCallers:    100_000,
			InactiveAfter: 5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Trending: TrendingConfig{
			CacheTTL:     60 * time.Second,
			DefaultLimit: 20,
			MaxLimit:     100,
			QueryTimeout: 10 * time.Second,
			Workers:      8,
			DeadBand:     5.0,
		},
		Bus: BusConfig{
			Buffer: 256,
		},
		Security: SecurityConfig{
			CORSOrigins:    []string{},
			HTTPRateLimit:  300,
			HTTPRateWindow: time.Minute,
		},
		Catalog: CatalogConfig{
			Entities: map[string][]string{},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// TOWNPULSE_-prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider(EnvPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, preferring CONFIG_PATH.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied through environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML): nothing to do.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envKeyMappings maps flattened environment names to nested config paths.
// Needed because section and key names both contain underscores, so a
// naive replace cannot recover the nesting.
var envKeyMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_idle_timeout":     "server.idle_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "log.level",
	"log_format": "log.format",
	"log_caller": "log.caller",

	"database_path":       "database.path",
	"database_threads":    "database.threads",
	"database_max_memory": "database.max_memory",

	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_timeout":           "breaker.timeout",
	"breaker_max_requests":      "breaker.max_requests",

	"rate_limit_window":         "rate_limit.window",
	"rate_limit_view_limit":     "rate_limit.view_limit",
	"rate_limit_interact_limit": "rate_limit.interact_limit",
	"rate_limit_max_callers":    "rate_limit.max_callers",
	"rate_limit_inactive_after": "rate_limit.inactive_after",
	"rate_limit_sweep_interval": "rate_limit.sweep_interval",

	"trending_cache_ttl":     "trending.cache_ttl",
	"trending_default_limit": "trending.default_limit",
	"trending_max_limit":     "trending.max_limit",
	"trending_query_timeout": "trending.query_timeout",
	"trending_workers":       "trending.workers",
	"trending_dead_band":     "trending.dead_band",

	"bus_buffer": "bus.buffer",

	"security_cors_origins":     "security.cors_origins",
	"security_http_rate_limit":  "security.http_rate_limit",
	"security_http_rate_window": "security.http_rate_window",
}

// envTransformFunc maps TOWNPULSE_ environment variable names to koanf
// config paths, e.g. TOWNPULSE_RATE_LIMIT_VIEW_LIMIT -> rate_limit.view_limit.
// Unknown names are dropped so unrelated variables cannot leak into the
// configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if path, ok := envKeyMappings[key]; ok {
		return path
	}
	return ""
}
