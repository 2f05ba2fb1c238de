// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic publishing sweep that flips content
// with a past publish_at from draft to published.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/atelierhq/atelier-go/internal/store"
)

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron    *cron.Cron
	queries *store.Queries
}

// New creates a Scheduler over the given query layer.
func New(queries *store.Queries) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		queries: queries,
	}
}

// Start registers the publishing sweep and starts the runner. The sweep runs
// every minute; publish_at granularity finer than that is not supported.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.publishDue); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop halts the runner and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

// publishDue flips every content row whose scheduled publish time has
// passed. Each content kind is swept independently so one failure does not
// block the others.
func (s *Scheduler) publishDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	if n, err := s.queries.PublishDueArticles(ctx, store.PublishDueArticlesParams{UpdatedAt: now, Now: now}); err != nil {
		slog.Error("publishing due articles failed", "error", err)
	} else if n > 0 {
		slog.Info("published due articles", "count", n)
	}

	if n, err := s.queries.PublishDueCourses(ctx, store.PublishDueCoursesParams{UpdatedAt: now, Now: now}); err != nil {
		slog.Error("publishing due courses failed", "error", err)
	} else if n > 0 {
		slog.Info("published due courses", "count", n)
	}

	if n, err := s.queries.PublishDueProjects(ctx, store.PublishDueProjectsParams{UpdatedAt: now, Now: now}); err != nil {
		slog.Error("publishing due projects failed", "error", err)
	} else if n > 0 {
		slog.Info("published due projects", "count", n)
	}
}
