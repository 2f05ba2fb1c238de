// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api implements the JSON HTTP API. Every handler receives the
// request's principal from the context the middleware populated and threads
// it explicitly into the access decisions; no handler consults global state.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-go/internal/auth"
	"github.com/atelierhq/atelier-go/internal/cache"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/slug"
	"github.com/atelierhq/atelier-go/internal/store"
	"github.com/atelierhq/atelier-go/internal/taxonomy"
)

// Handler carries the dependencies shared by all API endpoints.
type Handler struct {
	queries   *store.Queries
	allocator *slug.Allocator
	tags      *taxonomy.Reconciler
	cache     cache.Cache
}

// NewHandler creates the API handler set.
func NewHandler(queries *store.Queries, c cache.Cache) *Handler {
	return &Handler{
		queries:   queries,
		allocator: slug.NewAllocator(queries),
		tags:      taxonomy.NewReconciler(queries),
		cache:     c,
	}
}

// Routes builds the /api/v1 router. Public reads run with optional principal
// resolution so stale tokens degrade to anonymous; writes run strict and are
// gated on a minimum level. The rate limiter runs after principal resolution
// in every group so authenticated clients get per-identity buckets instead of
// sharing their NAT's IP bucket; limit is built once in main and shared here
// so all groups draw from the same bucket cache.
func (h *Handler) Routes(resolver *auth.Resolver, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)

	// Public reads.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PrincipalOptional(resolver))
		r.Use(limit)

		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{slug}", h.GetArticle)

		r.Get("/courses", h.ListCourses)
		r.Get("/courses/{slug}", h.GetCourse)
		r.Get("/courses/{slug}/modules", h.ListModules)
		r.Get("/courses/{slug}/modules/{moduleSlug}/lessons", h.ListLessons)
		r.Get("/courses/{slug}/modules/{moduleSlug}/lessons/{lessonSlug}", h.GetLesson)

		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{slug}", h.GetProject)

		r.Get("/tags", h.ListTags)
	})

	// Authenticated reads.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Principal(resolver))
		r.Use(limit)
		r.Use(middleware.RequireLevel(model.LevelGuest))

		r.Get("/members/me", h.Me)
	})

	// Author writes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Principal(resolver))
		r.Use(limit)
		r.Use(middleware.RequireLevel(model.LevelAuthor))

		r.Post("/articles", h.CreateArticle)
		r.Put("/articles/{id}", h.UpdateArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)
		r.Put("/articles/{id}/tags", h.ReplaceArticleTags)

		r.Post("/courses", h.CreateCourse)
		r.Put("/courses/{id}", h.UpdateCourse)
		r.Delete("/courses/{id}", h.DeleteCourse)
		r.Put("/courses/{id}/tags", h.ReplaceCourseTags)

		r.Post("/courses/{id}/modules", h.CreateModule)
		r.Put("/modules/{id}", h.UpdateModule)
		r.Delete("/modules/{id}", h.DeleteModule)

		r.Post("/modules/{id}/lessons", h.CreateLesson)
		r.Put("/lessons/{id}", h.UpdateLesson)
		r.Delete("/lessons/{id}", h.DeleteLesson)
		r.Put("/lessons/{id}/tags", h.ReplaceLessonTags)

		r.Post("/projects", h.CreateProject)
		r.Put("/projects/{id}", h.UpdateProject)
		r.Delete("/projects/{id}", h.DeleteProject)
		r.Put("/projects/{id}/tags", h.ReplaceProjectTags)
	})

	// Admin.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Principal(resolver))
		r.Use(limit)
		r.Use(middleware.RequireLevel(model.LevelAdmin))

		r.Post("/members", h.CreateMember)
		r.Put("/members/{identityID}/subscription", h.UpdateSubscription)
		r.Delete("/tags/{id}", h.DeleteTag)
		r.Get("/events", h.ListEvents)
		r.Get("/settings/{key}", h.GetSetting)
		r.Put("/settings/{key}", h.PutSetting)
	})

	return r
}

// Response is the uniform JSON envelope.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Meta  *Meta  `json:"meta,omitempty"`
	Error string `json:"error,omitempty"`
}

// Meta carries pagination details for list responses.
type Meta struct {
	Page    int64 `json:"page"`
	PerPage int64 `json:"per_page"`
	Total   int64 `json:"total"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data, Meta: meta}); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeModelError maps the error taxonomy to HTTP statuses. Unclassified
// errors become a generic 500 so internals never leak to clients.
func writeModelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrProfileNotFound):
		WriteError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, model.ErrInsufficientPermission), errors.Is(err, model.ErrForbidden):
		WriteError(w, http.StatusForbidden, "insufficient permission")
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict")
	case errors.Is(err, model.ErrUpstream):
		WriteError(w, http.StatusServiceUnavailable, "upstream unavailable")
	default:
		slog.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode parses a JSON request body.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return nil
}

// idParam parses a numeric chi URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s", model.ErrValidation, name)
	}
	return id, nil
}

// pagination parses page/per_page query parameters with sane bounds.
func pagination(r *http.Request) (limit, offset, page int64) {
	page = 1
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil && v > 0 {
		page = v
	}
	limit = 20
	if v, err := strconv.ParseInt(r.URL.Query().Get("per_page"), 10, 64); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return limit, (page - 1) * limit, page
}

// createError classifies an insert failure that survived the slug retry. A
// second uniqueness violation means the namespace is contended, which is the
// client-visible conflict case; anything else is a database fault.
func createError(action string, err error) error {
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s: slug contention", model.ErrConflict, action)
	}
	return fmt.Errorf("%w: %s: %v", model.ErrDatabase, action, err)
}

// canManage authorizes a content mutation: admins manage everything, authors
// manage what they own.
func canManage(p *model.Principal, ownerID string) error {
	if p == nil {
		return model.ErrUnauthenticated
	}
	if p.Level >= model.LevelAdmin || p.Owns(ownerID) {
		return nil
	}
	return fmt.Errorf("%w: not the owner", model.ErrForbidden)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.queries.Ping(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
