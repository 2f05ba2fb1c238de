// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// Resolver turns an optional bearer token into a Principal. It loads exactly
// the identity id, permission level and subscription flag from the members
// table, nothing more, so resolution stays cheap and side-effect-free.
type Resolver struct {
	verifier Verifier
	queries  *store.Queries
}

// NewResolver creates a Resolver over the given verifier and query layer.
func NewResolver(verifier Verifier, queries *store.Queries) *Resolver {
	return &Resolver{verifier: verifier, queries: queries}
}

// Resolve is the strict variant: it fails closed. An empty token resolves to
// a nil Principal without error (anonymous requests are not an error); an
// invalid token fails with ErrUnauthenticated; a valid token with no local
// member profile fails with ErrProfileNotFound; an unreachable auth provider
// fails with ErrUpstream so callers can report an outage instead of a
// rejection.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, nil
	}

	identityID, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) || errors.Is(err, model.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: verifying credential: %v", model.ErrUnauthenticated, err)
	}

	acc, err := r.queries.GetMemberAccessByIdentityID(ctx, identityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: identity %s", model.ErrProfileNotFound, identityID)
		}
		return nil, fmt.Errorf("%w: loading member: %v", model.ErrDatabase, err)
	}

	return &model.Principal{
		IdentityID:   acc.IdentityID,
		Level:        model.ParseLevel(acc.Level),
		IsSubscriber: acc.IsSubscriber,
	}, nil
}

// ResolveOptional shares Resolve's logic but degrades to anonymous instead
// of failing: ErrUnauthenticated, ErrProfileNotFound and ErrUpstream are
// swallowed with a warning so public endpoints keep working with a stale
// token or through a provider outage. Store failures still propagate.
func (r *Resolver) ResolveOptional(ctx context.Context, token string) (*model.Principal, error) {
	p, err := r.Resolve(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUpstream):
			slog.Warn("auth provider unavailable, degrading to anonymous", "error", err)
			return nil, nil
		case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrProfileNotFound):
			slog.Warn("degrading to anonymous", "error", err)
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
