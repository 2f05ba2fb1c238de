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
	"github.com/google/uuid"

	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// memberPayload is the member profile projection.
type memberPayload struct {
	IdentityID   string    `json:"identity_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Level        string    `json:"level"`
	IsSubscriber bool      `json:"is_subscriber"`
	CreatedAt    time.Time `json:"created_at"`
}

func newMemberPayload(m store.Member) memberPayload {
	return memberPayload{
		IdentityID:   m.IdentityID,
		Email:        m.Email,
		Name:         m.Name,
		Level:        m.Level,
		IsSubscriber: m.IsSubscriber,
		CreatedAt:    m.CreatedAt,
	}
}

// Me returns the caller's member profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	m, err := h.queries.GetMemberByIdentityID(r.Context(), p.IdentityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrProfileNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading member: %v", model.ErrDatabase, err))
		return
	}
	WriteJSON(w, http.StatusOK, newMemberPayload(m), nil)
}

// createMemberRequest is the admin member-provisioning body. IdentityID is
// optional; absent, a fresh id is minted for profiles created ahead of the
// first login.
type createMemberRequest struct {
	IdentityID   string `json:"identity_id,omitempty"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Level        string `json:"level"`
	IsSubscriber bool   `json:"is_subscriber"`
}

// CreateMember provisions a member profile. Admin only.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Email == "" {
		writeModelError(w, fmt.Errorf("%w: email is required", model.ErrValidation))
		return
	}
	level := model.ParseLevel(req.Level)
	if req.IdentityID == "" {
		req.IdentityID = uuid.NewString()
	}

	now := time.Now()
	m, err := h.queries.CreateMember(r.Context(), store.CreateMemberParams{
		IdentityID:   req.IdentityID,
		Email:        req.Email,
		Name:         req.Name,
		Level:        level.String(),
		IsSubscriber: req.IsSubscriber,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			writeModelError(w, fmt.Errorf("%w: member already exists", model.ErrConflict))
			return
		}
		writeModelError(w, fmt.Errorf("%w: creating member: %v", model.ErrDatabase, err))
		return
	}
	WriteJSON(w, http.StatusCreated, newMemberPayload(m), nil)
}

// subscriptionRequest is the body of the subscription flip endpoint, called
// by the billing integration.
type subscriptionRequest struct {
	IsSubscriber bool `json:"is_subscriber"`
}

// UpdateSubscription flips a member's subscription flag. Admin only; this
// layer itself never mutates subscriptions.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "identityID")

	if _, err := h.queries.GetMemberByIdentityID(r.Context(), identityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading member: %v", model.ErrDatabase, err))
		return
	}

	var req subscriptionRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}

	err := h.queries.UpdateMemberSubscription(r.Context(), store.UpdateMemberSubscriptionParams{
		IsSubscriber: req.IsSubscriber,
		UpdatedAt:    time.Now(),
		IdentityID:   identityID,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating subscription: %v", model.ErrDatabase, err))
		return
	}

	m, err := h.queries.GetMemberByIdentityID(r.Context(), identityID)
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: reloading member: %v", model.ErrDatabase, err))
		return
	}
	WriteJSON(w, http.StatusOK, newMemberPayload(m), nil)
}

// ListEvents returns the newest audit-log events. Admin only.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, _, _ := pagination(r)

	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing events: %v", model.ErrDatabase, err))
		return
	}
	WriteJSON(w, http.StatusOK, events, nil)
}
