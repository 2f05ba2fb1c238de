// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-go/internal/auth"
	"github.com/atelierhq/atelier-go/internal/cache"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// testServer wires the full API stack over a throwaway database with fixed
// tokens: "author-token", "subscriber-token" and "reader-token".
func testServer(t *testing.T) (*httptest.Server, *store.Queries) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	now := time.Now()
	members := []store.CreateMemberParams{
		{IdentityID: "author-1", Email: "author@example.com", Name: "Author", Level: "author"},
		{IdentityID: "subscriber-1", Email: "sub@example.com", Name: "Subscriber", Level: "guest", IsSubscriber: true},
		{IdentityID: "reader-1", Email: "reader@example.com", Name: "Reader", Level: "guest"},
	}
	for _, m := range members {
		m.CreatedAt, m.UpdatedAt = now, now
		_, err := queries.CreateMember(context.Background(), m)
		require.NoError(t, err)
	}

	verifier := auth.StaticVerifier{
		"author-token":     "author-1",
		"subscriber-token": "subscriber-1",
		"reader-token":     "reader-1",
	}
	resolver := auth.NewResolver(verifier, queries)
	handler := NewHandler(queries, cache.NewMemory())

	srv := httptest.NewServer(handler.Routes(resolver, middleware.RateLimit(1000, 1000)))
	t.Cleanup(srv.Close)
	return srv, queries
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func createPaidCourse(t *testing.T, q *store.Queries) store.Course {
	t.Helper()
	now := time.Now()
	c, err := q.CreateCourse(context.Background(), store.CreateCourseParams{
		Slug: "go-basics", Title: "Go Basics", Body: "## Full course body",
		OwnerID: "author-1", Published: true, IsPaid: true,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return c
}

// An anonymous viewer of a paid course gets the preview projection: no body,
// and a hint that authentication is required.
func TestPaidCourseAnonymousGetsPreview(t *testing.T) {
	srv, q := testServer(t)
	createPaidCourse(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/courses/go-basics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, "preview", data["access"])
	assert.Equal(t, "authentication_required", data["hint"])
	assert.Equal(t, "Go Basics", data["title"])
	assert.NotContains(t, data, "body")
}

// An authenticated non-subscriber also gets a preview, but the hint names
// the subscription.
func TestPaidCourseReaderGetsSubscriptionHint(t *testing.T) {
	srv, q := testServer(t)
	createPaidCourse(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/courses/go-basics", "reader-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, "preview", data["access"])
	assert.Equal(t, "subscription_required", data["hint"])
}

func TestPaidCourseSubscriberGetsFull(t *testing.T) {
	srv, q := testServer(t)
	createPaidCourse(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/courses/go-basics", "subscriber-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, "full", data["access"])
	assert.Equal(t, "## Full course body", data["body"])
	assert.Contains(t, data["body_html"], "<h2")
}

func TestPaidCourseOwnerGetsFull(t *testing.T) {
	srv, q := testServer(t)
	createPaidCourse(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/courses/go-basics", "author-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "full", decodeData(t, resp)["access"])
}

// A draft is a 404 for everyone but its owner: same status as a slug that
// never existed.
func TestDraftIsNotFoundForOthers(t *testing.T) {
	srv, q := testServer(t)
	now := time.Now()
	_, err := q.CreateArticle(context.Background(), store.CreateArticleParams{
		Slug: "draft", Title: "Draft", OwnerID: "author-1",
		Published: false, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	for _, token := range []string{"", "reader-token", "subscriber-token"} {
		resp := do(t, http.MethodGet, srv.URL+"/articles/draft", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	resp := do(t, http.MethodGet, srv.URL+"/articles/draft", "author-token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// A stale token on a public read degrades to anonymous instead of failing.
func TestPublicReadWithBadTokenDegrades(t *testing.T) {
	srv, q := testServer(t)
	createPaidCourse(t, q)

	resp := do(t, http.MethodGet, srv.URL+"/courses/go-basics", "expired-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "authentication_required", decodeData(t, resp)["hint"])
}

func TestCreateArticleRequiresAuthor(t *testing.T) {
	srv, _ := testServer(t)
	body := map[string]any{"title": "New Post", "body": "text", "published": true}

	resp := do(t, http.MethodPost, srv.URL+"/articles", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/articles", "reader-token", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/articles", "author-token", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeData(t, resp)
	assert.Equal(t, "new-post", data["slug"])
	assert.Equal(t, "author-1", data["owner_id"])
}

func TestCreateArticleAllocatesSuffixedSlug(t *testing.T) {
	srv, _ := testServer(t)
	body := map[string]any{"title": "Same Title", "body": "x", "published": true}

	resp := do(t, http.MethodPost, srv.URL+"/articles", "author-token", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "same-title", decodeData(t, resp)["slug"])

	resp = do(t, http.MethodPost, srv.URL+"/articles", "author-token", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "same-title-1", decodeData(t, resp)["slug"])
}

func TestUpdateArticleRejectsSlugChange(t *testing.T) {
	srv, q := testServer(t)
	now := time.Now()
	a, err := q.CreateArticle(context.Background(), store.CreateArticleParams{
		Slug: "fixed", Title: "Fixed", OwnerID: "author-1",
		Published: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	resp := do(t, http.MethodPut, srv.URL+"/articles/1", "author-token",
		map[string]any{"slug": "new-slug", "title": "Fixed", "body": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got, err := q.GetArticleByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Slug)
}

func TestReplaceArticleTags(t *testing.T) {
	srv, q := testServer(t)
	now := time.Now()
	_, err := q.CreateArticle(context.Background(), store.CreateArticleParams{
		Slug: "post", Title: "Post", OwnerID: "author-1",
		Published: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	resp := do(t, http.MethodPut, srv.URL+"/articles/1/tags", "author-token",
		map[string]any{"tags": []string{"Go", "go", "web"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Tags []string `json:"tags"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.ElementsMatch(t, []string{"Go", "web"}, envelope.Data.Tags)
}

func TestNonOwnerCannotMutate(t *testing.T) {
	srv, q := testServer(t)
	now := time.Now()

	// A second author who does not own the article.
	_, err := q.CreateMember(context.Background(), store.CreateMemberParams{
		IdentityID: "author-2", Email: "author2@example.com", Name: "Other",
		Level: "author", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = q.CreateArticle(context.Background(), store.CreateArticleParams{
		Slug: "post", Title: "Post", OwnerID: "author-2",
		Published: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	resp := do(t, http.MethodDelete, srv.URL+"/articles/1", "author-token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// An insert that still trips the slug's unique index after the retry is a
// conflict the client can act on, not a server fault.
func TestCreateErrorClassifiesUniqueViolation(t *testing.T) {
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	now := time.Now()
	params := store.CreateArticleParams{
		Slug: "taken", Title: "Taken", OwnerID: "author-1",
		CreatedAt: now, UpdatedAt: now,
	}
	_, err = queries.CreateArticle(context.Background(), params)
	require.NoError(t, err)
	_, dupErr := queries.CreateArticle(context.Background(), params)
	require.Error(t, dupErr)

	err = createError("creating article", dupErr)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.NotErrorIs(t, err, model.ErrDatabase)

	err = createError("creating article", errors.New("disk I/O error"))
	assert.ErrorIs(t, err, model.ErrDatabase)
	assert.NotErrorIs(t, err, model.ErrConflict)
}

// Authenticated clients behind one NAT IP must not share a bucket: the
// limiter runs after principal resolution, so each identity gets its own
// bucket and only anonymous traffic falls back to the IP key.
func TestRateLimitBucketsPerPrincipal(t *testing.T) {
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	queries := store.New(db)
	now := time.Now()
	for _, id := range []string{"member-a", "member-b"} {
		_, err := queries.CreateMember(context.Background(), store.CreateMemberParams{
			IdentityID: id, Email: id + "@example.com", Name: id,
			Level: "guest", CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	resolver := auth.NewResolver(auth.StaticVerifier{
		"tok-a": "member-a",
		"tok-b": "member-b",
	}, queries)
	router := NewHandler(queries, cache.NewMemory()).Routes(resolver, middleware.RateLimit(0.001, 1))

	get := func(token string) int {
		r := httptest.NewRequest(http.MethodGet, "/articles", nil)
		r.RemoteAddr = "203.0.113.7:4455"
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w.Code
	}

	// Burst 1 per bucket: each principal and the anonymous IP key get one
	// request through independently.
	assert.Equal(t, http.StatusOK, get("tok-a"))
	assert.Equal(t, http.StatusOK, get("tok-b"))
	assert.Equal(t, http.StatusOK, get(""))

	// Each exhausted bucket rejects its own second request.
	assert.Equal(t, http.StatusTooManyRequests, get("tok-a"))
	assert.Equal(t, http.StatusTooManyRequests, get(""))
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
