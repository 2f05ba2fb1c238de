// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package taxonomy

import (
	"context"
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

func fixtureArticle(t *testing.T, q *store.Queries) store.Article {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	_, err := q.CreateMember(ctx, store.CreateMemberParams{
		IdentityID: "owner-1", Email: "owner@example.com", Name: "Owner",
		Level: "author", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	a, err := q.CreateArticle(ctx, store.CreateArticleParams{
		Slug: "post", Title: "Post", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return a
}

func names(tags []store.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.Name)
	}
	return out
}

// Duplicate labels that differ only in case or surrounding whitespace
// collapse to one tag, keeping the first-seen casing.
func TestReconcileDedupesCaseInsensitively(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()

	a := fixtureArticle(t, q)
	ref := ContentRef{Type: store.ContentArticle, ID: a.ID}

	ids, err := r.Reconcile(ctx, []string{"Go", "go", " Go ", "", "sqlite"}, ref)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	tags, err := r.TagsFor(ctx, ref)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Go", "sqlite"}, names(tags))

	total, err := q.CountTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

// Reconciling twice with the same input is idempotent: same tag rows, same
// associations, no duplicates.
func TestReconcileIdempotent(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()

	a := fixtureArticle(t, q)
	ref := ContentRef{Type: store.ContentArticle, ID: a.ID}

	first, err := r.Reconcile(ctx, []string{"go", "web"}, ref)
	require.NoError(t, err)
	second, err := r.Reconcile(ctx, []string{"go", "web"}, ref)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	usage, err := q.CountTagUsage(ctx, first[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage)
}

// Reconcile is full-replace: the new set wins, removed labels are detached
// but their tag rows survive for other content.
func TestReconcileReplacesFullSet(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()

	a := fixtureArticle(t, q)
	ref := ContentRef{Type: store.ContentArticle, ID: a.ID}

	_, err := r.Reconcile(ctx, []string{"a", "b"}, ref)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, []string{"b", "c"}, ref)
	require.NoError(t, err)

	tags, err := r.TagsFor(ctx, ref)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, names(tags))

	// "a" is detached, not deleted.
	_, err = q.GetTagByName(ctx, "a")
	assert.NoError(t, err)
}

// An empty (or all-blank) input clears every association.
func TestReconcileEmptyClearsAssociations(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()

	a := fixtureArticle(t, q)
	ref := ContentRef{Type: store.ContentArticle, ID: a.ID}

	_, err := r.Reconcile(ctx, []string{"go"}, ref)
	require.NoError(t, err)

	ids, err := r.Reconcile(ctx, []string{"", "  "}, ref)
	require.NoError(t, err)
	assert.Nil(t, ids)

	tags, err := r.TagsFor(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

// Reused labels resolve to the same tag row across content types.
func TestReconcileReusesExistingTags(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()
	now := time.Now()

	a := fixtureArticle(t, q)
	course, err := q.CreateCourse(ctx, store.CreateCourseParams{
		Slug: "c", Title: "C", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	articleIDs, err := r.Reconcile(ctx, []string{"Go"}, ContentRef{Type: store.ContentArticle, ID: a.ID})
	require.NoError(t, err)
	courseIDs, err := r.Reconcile(ctx, []string{"go"}, ContentRef{Type: store.ContentCourse, ID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, articleIDs, courseIDs)

	usage, err := q.CountTagUsage(ctx, articleIDs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage)
}

// DeleteTag removes the tag row and its associations across every content
// type; the schema has no cascade on tag FKs, so this cleanup is the only
// thing keeping junction tables consistent.
func TestDeleteTagCascadesAcrossContentTypes(t *testing.T) {
	q := testQueries(t)
	r := NewReconciler(q)
	ctx := context.Background()
	now := time.Now()

	a := fixtureArticle(t, q)
	course, err := q.CreateCourse(ctx, store.CreateCourseParams{
		Slug: "c", Title: "C", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	project, err := q.CreateProject(ctx, store.CreateProjectParams{
		Slug: "p", Title: "P", OwnerID: "owner-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	ids, err := r.Reconcile(ctx, []string{"shared"}, ContentRef{Type: store.ContentArticle, ID: a.ID})
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, []string{"shared"}, ContentRef{Type: store.ContentCourse, ID: course.ID})
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, []string{"shared"}, ContentRef{Type: store.ContentProject, ID: project.ID})
	require.NoError(t, err)

	tagID := ids[0]
	usage, err := q.CountTagUsage(ctx, tagID)
	require.NoError(t, err)
	require.Equal(t, int64(3), usage)

	require.NoError(t, r.DeleteTag(ctx, tagID))

	_, err = q.GetTagByID(ctx, tagID)
	assert.Error(t, err)
	usage, err = q.CountTagUsage(ctx, tagID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage)
}

func TestDeleteTagNotFound(t *testing.T) {
	r := NewReconciler(testQueries(t))
	err := r.DeleteTag(context.Background(), 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
