// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/atelierhq/atelier-go/internal/cache"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
	"github.com/atelierhq/atelier-go/internal/taxonomy"
)

// tagUsageTTL bounds staleness of the cached per-tag usage counts. Usage is
// derived data; a stale count is harmless.
const tagUsageTTL = time.Minute

// tagPayload is a tag with its aggregate usage count.
type tagPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Usage int64  `json:"usage"`
}

// ListTags returns a page of tags with usage counts.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	limit, offset, page := pagination(r)

	tags, err := h.queries.ListTags(r.Context(), store.ListTagsParams{Limit: limit, Offset: offset})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing tags: %v", model.ErrDatabase, err))
		return
	}
	total, err := h.queries.CountTags(r.Context())
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: counting tags: %v", model.ErrDatabase, err))
		return
	}

	items := make([]tagPayload, 0, len(tags))
	for _, t := range tags {
		usage, err := h.tagUsage(r, t.ID)
		if err != nil {
			writeModelError(w, err)
			return
		}
		items = append(items, tagPayload{ID: t.ID, Name: t.Name, Usage: usage})
	}

	WriteJSON(w, http.StatusOK, items, &Meta{Page: page, PerPage: limit, Total: total})
}

// DeleteTag removes a tag and all of its associations across every content
// type.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := h.tags.DeleteTag(r.Context(), id); err != nil {
		writeModelError(w, err)
		return
	}
	_ = h.cache.Delete(r.Context(), tagUsageKey(id))
	w.WriteHeader(http.StatusNoContent)
}

// tagsRequest is the body of the tag-replacement endpoints.
type tagsRequest struct {
	Tags []string `json:"tags"`
}

// replaceTags is the shared implementation of the per-content-type tag
// replacement endpoints. ownerOf loads the owner of the target content so
// the mutation can be authorized before any association changes.
func (h *Handler) replaceTags(w http.ResponseWriter, r *http.Request, ct store.ContentType,
	ownerOf func(*http.Request, int64) (string, error)) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	ownerID, err := ownerOf(r, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading content: %v", model.ErrDatabase, err))
		return
	}
	if err := canManage(p, ownerID); err != nil {
		writeModelError(w, err)
		return
	}

	var req tagsRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}

	ref := taxonomy.ContentRef{Type: ct, ID: id}
	ids, err := h.tags.Reconcile(r.Context(), req.Tags, ref)
	if err != nil {
		writeModelError(w, err)
		return
	}
	for _, tagID := range ids {
		_ = h.cache.Delete(r.Context(), tagUsageKey(tagID))
	}

	tags, err := h.tags.TagsFor(r.Context(), ref)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]string{"tags": tagNames(tags)}, nil)
}

// tagUsage returns the cached usage count for a tag, recomputing on a miss.
func (h *Handler) tagUsage(r *http.Request, tagID int64) (int64, error) {
	key := tagUsageKey(tagID)
	if v, err := h.cache.Get(r.Context(), key); err == nil {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		return 0, fmt.Errorf("%w: reading tag usage cache: %v", model.ErrDatabase, err)
	}

	n, err := h.queries.CountTagUsage(r.Context(), tagID)
	if err != nil {
		return 0, fmt.Errorf("%w: counting tag usage: %v", model.ErrDatabase, err)
	}
	_ = h.cache.Set(r.Context(), key, strconv.FormatInt(n, 10), tagUsageTTL)
	return n, nil
}

func tagUsageKey(tagID int64) string {
	return "tag:usage:" + strconv.FormatInt(tagID, 10)
}
