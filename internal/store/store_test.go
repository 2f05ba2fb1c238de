package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB opens a throwaway migrated database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func testMember(t *testing.T, q *Queries, identityID string) Member {
	t.Helper()
	now := time.Now()
	m, err := q.CreateMember(context.Background(), CreateMemberParams{
		IdentityID:   identityID,
		Email:        identityID + "@example.com",
		Name:         "Test Member",
		Level:        "author",
		IsSubscriber: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return m
}

func testArticle(t *testing.T, q *Queries, slug, ownerID string) Article {
	t.Helper()
	now := time.Now()
	a, err := q.CreateArticle(context.Background(), CreateArticleParams{
		Slug:      slug,
		Title:     "Title for " + slug,
		Body:      "body",
		OwnerID:   ownerID,
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return a
}

func TestMemberAccessProjection(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	m := testMember(t, q, "id-1")

	acc, err := q.GetMemberAccessByIdentityID(ctx, m.IdentityID)
	require.NoError(t, err)
	assert.Equal(t, "id-1", acc.IdentityID)
	assert.Equal(t, "author", acc.Level)
	assert.False(t, acc.IsSubscriber)

	_, err = q.GetMemberAccessByIdentityID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateMemberSubscription(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	m := testMember(t, q, "id-1")
	err := q.UpdateMemberSubscription(ctx, UpdateMemberSubscriptionParams{
		IsSubscriber: true,
		UpdatedAt:    time.Now(),
		IdentityID:   m.IdentityID,
	})
	require.NoError(t, err)

	acc, err := q.GetMemberAccessByIdentityID(ctx, m.IdentityID)
	require.NoError(t, err)
	assert.True(t, acc.IsSubscriber)
}

func TestIsUniqueViolation(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	m := testMember(t, q, "id-1")
	testArticle(t, q, "taken", m.IdentityID)

	_, err := q.CreateArticle(ctx, CreateArticleParams{
		Slug: "taken", Title: "t", OwnerID: m.IdentityID,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
	assert.False(t, IsUniqueViolation(nil))
}

func TestModuleSlugScopedPerCourse(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	now := time.Now()

	m := testMember(t, q, "id-1")
	courseA, err := q.CreateCourse(ctx, CreateCourseParams{
		Slug: "course-a", Title: "A", OwnerID: m.IdentityID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	courseB, err := q.CreateCourse(ctx, CreateCourseParams{
		Slug: "course-b", Title: "B", OwnerID: m.IdentityID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	// Same module slug in two different courses is fine.
	_, err = q.CreateModule(ctx, CreateModuleParams{CourseID: courseA.ID, Slug: "intro", Title: "Intro", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	_, err = q.CreateModule(ctx, CreateModuleParams{CourseID: courseB.ID, Slug: "intro", Title: "Intro", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	// Duplicate within one course is rejected by the scoped unique index.
	_, err = q.CreateModule(ctx, CreateModuleParams{CourseID: courseA.ID, Slug: "intro", Title: "Intro again", CreatedAt: now, UpdatedAt: now})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestGetCourseForLesson(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	now := time.Now()

	m := testMember(t, q, "id-1")
	course, err := q.CreateCourse(ctx, CreateCourseParams{
		Slug: "go-basics", Title: "Go Basics", OwnerID: m.IdentityID,
		Published: true, IsPaid: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	mod, err := q.CreateModule(ctx, CreateModuleParams{CourseID: course.ID, Slug: "intro", Title: "Intro", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	lesson, err := q.CreateLesson(ctx, CreateLessonParams{ModuleID: mod.ID, Slug: "hello", Title: "Hello", Body: "b", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	got, err := q.GetCourseForLesson(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, got.ID)
	assert.True(t, got.IsPaid)
}

func TestDeleteCourseCascades(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	now := time.Now()

	m := testMember(t, q, "id-1")
	course, err := q.CreateCourse(ctx, CreateCourseParams{
		Slug: "c", Title: "C", OwnerID: m.IdentityID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	mod, err := q.CreateModule(ctx, CreateModuleParams{CourseID: course.ID, Slug: "m", Title: "M", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	lesson, err := q.CreateLesson(ctx, CreateLessonParams{ModuleID: mod.ID, Slug: "l", Title: "L", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	require.NoError(t, q.DeleteCourse(ctx, course.ID))

	_, err = q.GetModuleByID(ctx, mod.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = q.GetLessonByID(ctx, lesson.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetTagByNameCaseInsensitive(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	created, err := q.CreateTag(ctx, CreateTagParams{Name: "Go", CreatedAt: time.Now()})
	require.NoError(t, err)

	for _, name := range []string{"go", "GO", "Go"} {
		tag, err := q.GetTagByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, created.ID, tag.ID)
		assert.Equal(t, "Go", tag.Name, "original casing is preserved")
	}

	// The unique index on lower(name) rejects a duplicate in any casing.
	_, err = q.CreateTag(ctx, CreateTagParams{Name: "gO", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestTagAssociationsAndUsage(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	m := testMember(t, q, "id-1")
	a := testArticle(t, q, "a", m.IdentityID)
	tag, err := q.CreateTag(ctx, CreateTagParams{Name: "go", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, q.CreateTagAssociation(ctx, ContentArticle, a.ID, tag.ID))

	tags, err := q.ListTagsForContent(ctx, ContentArticle, a.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].Name)

	usage, err := q.CountTagUsage(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage)

	// Deleting the article cascades its junction rows.
	require.NoError(t, q.DeleteArticle(ctx, a.ID))
	usage, err = q.CountTagUsage(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage)
}

func TestPublishDueArticles(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	now := time.Now()

	m := testMember(t, q, "id-1")
	_, err := q.CreateArticle(ctx, CreateArticleParams{
		Slug: "due", Title: "Due", OwnerID: m.IdentityID,
		Published: false, PublishAt: sql.NullTime{Time: now.Add(-time.Hour), Valid: true},
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = q.CreateArticle(ctx, CreateArticleParams{
		Slug: "future", Title: "Future", OwnerID: m.IdentityID,
		Published: false, PublishAt: sql.NullTime{Time: now.Add(time.Hour), Valid: true},
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	n, err := q.PublishDueArticles(ctx, PublishDueArticlesParams{UpdatedAt: now, Now: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	due, err := q.GetArticleBySlug(ctx, "due")
	require.NoError(t, err)
	assert.True(t, due.Published)

	future, err := q.GetArticleBySlug(ctx, "future")
	require.NoError(t, err)
	assert.False(t, future.Published)
}
