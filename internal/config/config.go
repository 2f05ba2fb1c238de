// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads runtime configuration from ATELIER_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration.
type Config struct {
	Env      string `env:"ATELIER_ENV" envDefault:"development"`
	Host     string `env:"ATELIER_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"ATELIER_PORT" envDefault:"8080"`
	DBPath   string `env:"ATELIER_DB_PATH" envDefault:"atelier.db"`
	LogLevel string `env:"ATELIER_LOG_LEVEL" envDefault:"info"`

	// AuthProviderURL is the user-info endpoint of the external credential
	// issuer. Empty disables token verification, leaving every request
	// anonymous.
	AuthProviderURL string `env:"ATELIER_AUTH_PROVIDER_URL"`

	// RedisURL enables the Redis cache when set; empty uses the in-process
	// cache.
	RedisURL string `env:"ATELIER_REDIS_URL"`

	RateLimitPerSecond float64 `env:"ATELIER_RATE_LIMIT_PER_SECOND" envDefault:"10"`
	RateLimitBurst     int     `env:"ATELIER_RATE_LIMIT_BURST" envDefault:"20"`

	// SeedAdmin creates a default admin member on first start.
	SeedAdmin bool `env:"ATELIER_SEED_ADMIN" envDefault:"true"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the environment is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// SlogLevel maps the configured log level to a slog.Level, defaulting to
// info on unknown values.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
