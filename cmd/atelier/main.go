// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Command atelier runs the content backend: identity resolution, access
// control, content and taxonomy management over SQLite.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/atelierhq/atelier-go/internal/auth"
	"github.com/atelierhq/atelier-go/internal/cache"
	"github.com/atelierhq/atelier-go/internal/config"
	"github.com/atelierhq/atelier-go/internal/handler/api"
	"github.com/atelierhq/atelier-go/internal/logging"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/scheduler"
	"github.com/atelierhq/atelier-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}

	// Route WARN+ logs to the events table on top of stderr output.
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(logging.NewEventLogHandler(base, db)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedAdmin {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	queries := store.New(db)

	var verifier auth.Verifier
	if cfg.AuthProviderURL != "" {
		verifier = auth.NewHTTPVerifier(cfg.AuthProviderURL)
	} else {
		slog.Warn("no auth provider configured, all requests are anonymous")
		verifier = auth.StaticVerifier{}
	}
	resolver := auth.NewResolver(verifier, queries)

	handler := api.NewHandler(queries, cache.New(cfg.RedisURL))

	// Built once so every route group shares one bucket cache; it is applied
	// inside Routes after principal resolution, where identity keys exist.
	limit := middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Mount("/api/v1", handler.Routes(resolver, limit))

	sched := scheduler.New(queries)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
