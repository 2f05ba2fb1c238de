// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package slug

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func createMember(t *testing.T, q *store.Queries, identityID string) {
	t.Helper()
	now := time.Now()
	_, err := q.CreateMember(context.Background(), store.CreateMemberParams{
		IdentityID: identityID,
		Email:      identityID + "@example.com",
		Name:       "Member",
		Level:      "author",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
}

func createArticle(t *testing.T, q *store.Queries, slug string) {
	t.Helper()
	now := time.Now()
	_, err := q.CreateArticle(context.Background(), store.CreateArticleParams{
		Slug: slug, Title: slug, OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

// The same title allocated repeatedly yields the deterministic suffix
// sequence: base, base-1, base-2.
func TestAllocateSuffixSequence(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "owner-1")
	a := NewAllocator(q)
	ctx := context.Background()

	s, err := a.Allocate(ctx, "Hello, World!", Articles())
	require.NoError(t, err)
	assert.Equal(t, "hello-world", s)
	createArticle(t, q, s)

	s, err = a.Allocate(ctx, "Hello, World!", Articles())
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", s)
	createArticle(t, q, s)

	s, err = a.Allocate(ctx, "Hello, World!", Articles())
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", s)
}

func TestAllocateFallbackTitle(t *testing.T) {
	q := testQueries(t)
	a := NewAllocator(q)

	s, err := a.Allocate(context.Background(), "???", Articles())
	require.NoError(t, err)
	assert.Equal(t, "untitled", s)
}

// Module slugs are scoped to their course: two courses can both allocate
// "intro" without collision, while a second "intro" in the same course gets
// a suffix.
func TestAllocateNamespaceIsolation(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "owner-1")
	a := NewAllocator(q)
	ctx := context.Background()
	now := time.Now()

	courseA, err := q.CreateCourse(ctx, store.CreateCourseParams{
		Slug: "course-a", Title: "A", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	courseB, err := q.CreateCourse(ctx, store.CreateCourseParams{
		Slug: "course-b", Title: "B", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	s, err := a.Allocate(ctx, "Intro", ModulesOf(courseA.ID))
	require.NoError(t, err)
	assert.Equal(t, "intro", s)
	_, err = q.CreateModule(ctx, store.CreateModuleParams{
		CourseID: courseA.ID, Slug: s, Title: "Intro", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	// Other course: same slug, no conflict.
	s, err = a.Allocate(ctx, "Intro", ModulesOf(courseB.ID))
	require.NoError(t, err)
	assert.Equal(t, "intro", s)

	// Same course: suffix.
	s, err = a.Allocate(ctx, "Intro", ModulesOf(courseA.ID))
	require.NoError(t, err)
	assert.Equal(t, "intro-1", s)
}

func TestRetryOnlyAfterUniqueViolation(t *testing.T) {
	q := testQueries(t)
	createMember(t, q, "owner-1")
	a := NewAllocator(q)
	ctx := context.Background()

	// A non-uniqueness error passes through unchanged.
	plain := errors.New("disk I/O error")
	_, err := a.Retry(ctx, "Hello", Articles(), plain)
	assert.Equal(t, plain, err)
	_, err = a.Retry(ctx, "Hello", Articles(), sql.ErrNoRows)
	assert.Equal(t, sql.ErrNoRows, err)

	// A real uniqueness violation triggers a fresh probe.
	createArticle(t, q, "hello")
	_, uniqueErr := q.CreateArticle(ctx, store.CreateArticleParams{
		Slug: "hello", Title: "Hello", OwnerID: "owner-1",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.Error(t, uniqueErr)

	s, err := a.Retry(ctx, "Hello", Articles(), uniqueErr)
	require.NoError(t, err)
	assert.Equal(t, "hello-1", s)
}
