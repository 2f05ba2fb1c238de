// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-go/internal/access"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/slug"
	"github.com/atelierhq/atelier-go/internal/store"
	"github.com/atelierhq/atelier-go/internal/taxonomy"
)

// ListProjects returns a page of published portfolio projects projected per
// viewer.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	limit, offset, page := pagination(r)

	projects, err := h.queries.ListPublishedProjects(r.Context(), store.ListPublishedProjectsParams{Limit: limit, Offset: offset})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing projects: %v", model.ErrDatabase, err))
		return
	}
	total, err := h.queries.CountPublishedProjects(r.Context())
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: counting projects: %v", model.ErrDatabase, err))
		return
	}

	items := make([]any, 0, len(projects))
	for _, pr := range projects {
		d := access.Resolve(p, model.ContentMeta{OwnerID: pr.OwnerID, Published: pr.Published, IsPaid: pr.IsPaid})
		switch d.Access {
		case model.AccessFull:
			payload, err := h.projectPayload(r, pr)
			if err != nil {
				writeModelError(w, err)
				return
			}
			items = append(items, payload)
		case model.AccessPreview:
			items = append(items, newPreview(pr.Slug, pr.Title, pr.Body, d))
		}
	}

	WriteJSON(w, http.StatusOK, items, &Meta{Page: page, PerPage: limit, Total: total})
}

// GetProject serves one project by slug, projected per the viewer's
// visibility decision.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	pr, err := h.queries.GetProjectBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading project: %v", model.ErrDatabase, err))
		return
	}

	d := access.Resolve(p, model.ContentMeta{OwnerID: pr.OwnerID, Published: pr.Published, IsPaid: pr.IsPaid})
	switch d.Access {
	case model.AccessNotFound:
		writeModelError(w, model.ErrNotFound)
	case model.AccessPreview:
		WriteJSON(w, http.StatusOK, newPreview(pr.Slug, pr.Title, pr.Body, d), nil)
	case model.AccessFull:
		payload, err := h.projectPayload(r, pr)
		if err != nil {
			writeModelError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, payload, nil)
	}
}

// CreateProject creates a project owned by the caller.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	var req contentRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	s, err := h.allocator.Allocate(r.Context(), req.Title, slug.Projects())
	if err != nil {
		writeModelError(w, err)
		return
	}

	now := time.Now()
	params := store.CreateProjectParams{
		Slug:      s,
		Title:     req.Title,
		Body:      req.Body,
		OwnerID:   p.IdentityID,
		Published: req.Published,
		IsPaid:    req.IsPaid,
		PublishAt: nullTime(req.PublishAt),
		CreatedAt: now,
		UpdatedAt: now,
	}

	pr, err := h.queries.CreateProject(r.Context(), params)
	if err != nil {
		s, retryErr := h.allocator.Retry(r.Context(), req.Title, slug.Projects(), err)
		if retryErr != nil {
			writeModelError(w, fmt.Errorf("%w: creating project: %v", model.ErrDatabase, retryErr))
			return
		}
		params.Slug = s
		pr, err = h.queries.CreateProject(r.Context(), params)
		if err != nil {
			writeModelError(w, createError("creating project", err))
			return
		}
	}

	if len(req.Tags) > 0 {
		ref := taxonomy.ContentRef{Type: store.ContentProject, ID: pr.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.projectPayload(r, pr)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, payload, nil)
}

// UpdateProject updates a project's mutable fields; the slug never changes.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	var req contentRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Slug != nil {
		writeModelError(w, fmt.Errorf("%w: slug is immutable", model.ErrValidation))
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	existing, err := h.queries.GetProjectByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading project: %v", model.ErrDatabase, err))
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	pr, err := h.queries.UpdateProject(r.Context(), store.UpdateProjectParams{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		IsPaid:    req.IsPaid,
		PublishAt: nullTime(req.PublishAt),
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating project: %v", model.ErrDatabase, err))
		return
	}

	if req.Tags != nil {
		ref := taxonomy.ContentRef{Type: store.ContentProject, ID: pr.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.projectPayload(r, pr)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload, nil)
}

// DeleteProject removes a project.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	existing, err := h.queries.GetProjectByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading project: %v", model.ErrDatabase, err))
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	if err := h.queries.DeleteProject(r.Context(), id); err != nil {
		writeModelError(w, fmt.Errorf("%w: deleting project: %v", model.ErrDatabase, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceProjectTags replaces the project's tag set.
func (h *Handler) ReplaceProjectTags(w http.ResponseWriter, r *http.Request) {
	h.replaceTags(w, r, store.ContentProject, func(req *http.Request, id int64) (string, error) {
		pr, err := h.queries.GetProjectByID(req.Context(), id)
		return pr.OwnerID, err
	})
}

func (h *Handler) projectPayload(r *http.Request, pr store.Project) (contentPayload, error) {
	tags, err := h.tags.TagsFor(r.Context(), taxonomy.ContentRef{Type: store.ContentProject, ID: pr.ID})
	if err != nil {
		return contentPayload{}, err
	}
	return newContent(pr.ID, pr.Slug, pr.Title, pr.Body, pr.OwnerID, pr.Published, pr.IsPaid,
		pr.PublishAt, tagNames(tags), pr.CreatedAt, pr.UpdatedAt)
}
