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

	"github.com/atelierhq/atelier-go/internal/cache"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// settingTTL bounds staleness of cached settings reads.
const settingTTL = 5 * time.Minute

type settingPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetSetting returns a setting, served from cache when fresh. Admin only.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if v, err := h.cache.Get(r.Context(), settingKey(key)); err == nil {
		WriteJSON(w, http.StatusOK, settingPayload{Key: key, Value: v}, nil)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		writeModelError(w, fmt.Errorf("%w: reading settings cache: %v", model.ErrDatabase, err))
		return
	}

	s, err := h.queries.GetSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading setting: %v", model.ErrDatabase, err))
		return
	}
	_ = h.cache.Set(r.Context(), settingKey(key), s.Value, settingTTL)
	WriteJSON(w, http.StatusOK, settingPayload{Key: s.Key, Value: s.Value}, nil)
}

// PutSetting creates or replaces a setting and invalidates its cache entry.
// Admin only.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req struct {
		Value string `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}

	err := h.queries.UpsertSetting(r.Context(), store.UpsertSettingParams{
		Key:       key,
		Value:     req.Value,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: saving setting: %v", model.ErrDatabase, err))
		return
	}
	_ = h.cache.Delete(r.Context(), settingKey(key))
	WriteJSON(w, http.StatusOK, settingPayload{Key: key, Value: req.Value}, nil)
}

func settingKey(key string) string {
	return "setting:" + key
}
