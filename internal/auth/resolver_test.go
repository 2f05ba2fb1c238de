// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

func testQueries(t *testing.T) *store.Queries {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))
	return store.New(db)
}

func createMember(t *testing.T, q *store.Queries, identityID, level string, subscriber bool) {
	t.Helper()
	now := time.Now()
	_, err := q.CreateMember(context.Background(), store.CreateMemberParams{
		IdentityID:   identityID,
		Email:        identityID + "@example.com",
		Name:         "Member",
		Level:        level,
		IsSubscriber: subscriber,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
}

func TestResolveEmptyTokenIsAnonymous(t *testing.T) {
	r := NewResolver(StaticVerifier{}, testQueries(t))

	p, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveValidToken(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "id-1", "author", true)
	r := NewResolver(StaticVerifier{"tok-1": "id-1"}, q)

	p, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "id-1", p.IdentityID)
	assert.Equal(t, model.LevelAuthor, p.Level)
	assert.True(t, p.IsSubscriber)
}

func TestResolveInvalidToken(t *testing.T) {
	r := NewResolver(StaticVerifier{}, testQueries(t))

	_, err := r.Resolve(context.Background(), "bogus")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestResolveMissingProfile(t *testing.T) {
	// Token verifies fine but no local member row exists.
	r := NewResolver(StaticVerifier{"tok-1": "id-1"}, testQueries(t))

	_, err := r.Resolve(context.Background(), "tok-1")
	assert.ErrorIs(t, err, model.ErrProfileNotFound)
}

func TestResolveUnknownLevelMapsToGuest(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "id-1", "superuser", false)
	r := NewResolver(StaticVerifier{"tok-1": "id-1"}, q)

	p, err := r.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, model.LevelGuest, p.Level)
}

func TestResolveOptionalDegradesToAnonymous(t *testing.T) {
	q := testQueries(t)
	r := NewResolver(StaticVerifier{"tok-1": "id-1"}, q)

	// Invalid token: anonymous, no error.
	p, err := r.ResolveOptional(context.Background(), "bogus")
	require.NoError(t, err)
	assert.Nil(t, p)

	// Valid token, missing profile: anonymous, no error.
	p, err = r.ResolveOptional(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveOptionalStillResolvesValidTokens(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "id-1", "admin", false)
	r := NewResolver(StaticVerifier{"tok-1": "id-1"}, q)

	p, err := r.ResolveOptional(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.LevelAdmin, p.Level)
}

func TestHTTPVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"id-42"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)

	id, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "id-42", id)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

// A provider that cannot be reached is an outage, not a verdict on the
// token: the verifier reports ErrUpstream, never ErrUnauthenticated.
func TestHTTPVerifierUnreachableProviderIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	v := NewHTTPVerifier(srv.URL)

	_, err := v.Verify(context.Background(), "any")
	assert.ErrorIs(t, err, model.ErrUpstream)
	assert.NotErrorIs(t, err, model.ErrUnauthenticated)
}

// Strict resolution propagates the outage so callers can answer 503; lenient
// resolution degrades to anonymous so public reads survive it.
func TestResolveClassifiesProviderOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := NewResolver(NewHTTPVerifier(srv.URL), testQueries(t))

	_, err := r.Resolve(context.Background(), "any")
	assert.ErrorIs(t, err, model.ErrUpstream)
	assert.NotErrorIs(t, err, model.ErrUnauthenticated)

	p, err := r.ResolveOptional(context.Background(), "any")
	require.NoError(t, err)
	assert.Nil(t, p)
}
