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

// ListArticles returns a page of published articles. Paid articles appear as
// previews for viewers without entitlement; entitled viewers get the full
// payload.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	limit, offset, page := pagination(r)

	articles, err := h.queries.ListPublishedArticles(r.Context(), store.ListPublishedArticlesParams{Limit: limit, Offset: offset})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing articles: %v", model.ErrDatabase, err))
		return
	}
	total, err := h.queries.CountPublishedArticles(r.Context())
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: counting articles: %v", model.ErrDatabase, err))
		return
	}

	items := make([]any, 0, len(articles))
	for _, a := range articles {
		d := access.Resolve(p, model.ContentMeta{OwnerID: a.OwnerID, Published: a.Published, IsPaid: a.IsPaid})
		switch d.Access {
		case model.AccessFull:
			payload, err := h.articlePayload(r, a)
			if err != nil {
				writeModelError(w, err)
				return
			}
			items = append(items, payload)
		case model.AccessPreview:
			items = append(items, newPreview(a.Slug, a.Title, a.Body, d))
		}
	}

	WriteJSON(w, http.StatusOK, items, &Meta{Page: page, PerPage: limit, Total: total})
}

// GetArticle serves one article by slug, projected per the viewer's
// visibility decision. Preview access returns the reduced payload with a
// hint naming what the viewer lacks; invisible content is a plain 404.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	a, err := h.queries.GetArticleBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading article: %v", model.ErrDatabase, err))
		return
	}

	d := access.Resolve(p, model.ContentMeta{OwnerID: a.OwnerID, Published: a.Published, IsPaid: a.IsPaid})
	switch d.Access {
	case model.AccessNotFound:
		writeModelError(w, model.ErrNotFound)
	case model.AccessPreview:
		WriteJSON(w, http.StatusOK, newPreview(a.Slug, a.Title, a.Body, d), nil)
	case model.AccessFull:
		payload, err := h.articlePayload(r, a)
		if err != nil {
			writeModelError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, payload, nil)
	}
}

// CreateArticle creates an article owned by the caller. The slug is derived
// from the title; a creation race on the slug is retried once against a
// fresh probe.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
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

	s, err := h.allocator.Allocate(r.Context(), req.Title, slug.Articles())
	if err != nil {
		writeModelError(w, err)
		return
	}

	now := time.Now()
	params := store.CreateArticleParams{
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

	a, err := h.queries.CreateArticle(r.Context(), params)
	if err != nil {
		s, retryErr := h.allocator.Retry(r.Context(), req.Title, slug.Articles(), err)
		if retryErr != nil {
			writeModelError(w, fmt.Errorf("%w: creating article: %v", model.ErrDatabase, retryErr))
			return
		}
		params.Slug = s
		a, err = h.queries.CreateArticle(r.Context(), params)
		if err != nil {
			writeModelError(w, createError("creating article", err))
			return
		}
	}

	if len(req.Tags) > 0 {
		ref := taxonomy.ContentRef{Type: store.ContentArticle, ID: a.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.articlePayload(r, a)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, payload, nil)
}

// UpdateArticle updates an article's mutable fields. A slug in the request
// body is rejected rather than silently ignored.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
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

	existing, err := h.queries.GetArticleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading article: %v", model.ErrDatabase, err))
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	a, err := h.queries.UpdateArticle(r.Context(), store.UpdateArticleParams{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		IsPaid:    req.IsPaid,
		PublishAt: nullTime(req.PublishAt),
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating article: %v", model.ErrDatabase, err))
		return
	}

	if req.Tags != nil {
		ref := taxonomy.ContentRef{Type: store.ContentArticle, ID: a.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.articlePayload(r, a)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload, nil)
}

// DeleteArticle removes an article; junction rows go with it via FK cascade.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	existing, err := h.queries.GetArticleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading article: %v", model.ErrDatabase, err))
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	if err := h.queries.DeleteArticle(r.Context(), id); err != nil {
		writeModelError(w, fmt.Errorf("%w: deleting article: %v", model.ErrDatabase, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceArticleTags replaces the article's tag set with the request's.
func (h *Handler) ReplaceArticleTags(w http.ResponseWriter, r *http.Request) {
	h.replaceTags(w, r, store.ContentArticle, func(req *http.Request, id int64) (string, error) {
		a, err := h.queries.GetArticleByID(req.Context(), id)
		return a.OwnerID, err
	})
}

func (h *Handler) articlePayload(r *http.Request, a store.Article) (contentPayload, error) {
	tags, err := h.tags.TagsFor(r.Context(), taxonomy.ContentRef{Type: store.ContentArticle, ID: a.ID})
	if err != nil {
		return contentPayload{}, err
	}
	return newContent(a.ID, a.Slug, a.Title, a.Body, a.OwnerID, a.Published, a.IsPaid,
		a.PublishAt, tagNames(tags), a.CreatedAt, a.UpdatedAt)
}
