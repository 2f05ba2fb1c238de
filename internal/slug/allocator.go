// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package slug

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// Namespace identifies the scope within which a slug must be unique: a whole
// table, or a table scoped to a parent id (modules within a course, lessons
// within a module). ParentID is zero for global namespaces.
type Namespace struct {
	Table    string
	ParentID int64
}

// Global namespace tables.
const (
	TableArticles = "articles"
	TableCourses  = "courses"
	TableProjects = "projects"
)

// Parent-scoped namespace tables.
const (
	TableCourseModules = "course_modules"
	TableLessons       = "lessons"
)

// Articles returns the global article namespace.
func Articles() Namespace { return Namespace{Table: TableArticles} }

// Courses returns the global course namespace.
func Courses() Namespace { return Namespace{Table: TableCourses} }

// Projects returns the global project namespace.
func Projects() Namespace { return Namespace{Table: TableProjects} }

// ModulesOf returns the module namespace scoped to a course.
func ModulesOf(courseID int64) Namespace {
	return Namespace{Table: TableCourseModules, ParentID: courseID}
}

// LessonsOf returns the lesson namespace scoped to a module.
func LessonsOf(moduleID int64) Namespace {
	return Namespace{Table: TableLessons, ParentID: moduleID}
}

// maxProbes bounds the suffix search. A namespace with this many colliding
// slugs indicates something else is wrong.
const maxProbes = 1000

// Allocator produces collision-free slugs by probing a namespace for the
// normalized candidate and appending -1, -2, ... until a free slug is found.
// Probe-then-insert is not atomic; the unique index on every namespace is
// the backstop and Retry re-runs the probe after an insert conflict.
type Allocator struct {
	queries *store.Queries
}

// NewAllocator creates an Allocator over the given query layer.
func NewAllocator(queries *store.Queries) *Allocator {
	return &Allocator{queries: queries}
}

// Allocate normalizes candidate and returns the first slug not yet used in
// the namespace. Only creation paths call this: updates never regenerate a
// slug.
func (a *Allocator) Allocate(ctx context.Context, candidate string, ns Namespace) (string, error) {
	base := Slugify(candidate)
	probe := base
	for i := 1; i <= maxProbes; i++ {
		taken, err := a.exists(ctx, ns, probe)
		if err != nil {
			return "", fmt.Errorf("probing slug %q: %w", probe, err)
		}
		if taken == 0 {
			return probe, nil
		}
		probe = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: no free slug for %q in %s", model.ErrConflict, base, ns.Table)
}

// Retry re-probes once after an insert failed with a uniqueness violation,
// meaning a concurrent writer took the slug between probe and insert. If err
// is not a uniqueness violation it is returned unchanged.
func (a *Allocator) Retry(ctx context.Context, candidate string, ns Namespace, err error) (string, error) {
	if !store.IsUniqueViolation(err) {
		return "", err
	}
	s, probeErr := a.Allocate(ctx, candidate, ns)
	if probeErr != nil {
		return "", probeErr
	}
	return s, nil
}

func (a *Allocator) exists(ctx context.Context, ns Namespace, s string) (int64, error) {
	switch ns.Table {
	case TableArticles:
		return a.queries.ArticleSlugExists(ctx, s)
	case TableCourses:
		return a.queries.CourseSlugExists(ctx, s)
	case TableProjects:
		return a.queries.ProjectSlugExists(ctx, s)
	case TableCourseModules:
		return a.queries.ModuleSlugExists(ctx, store.ModuleSlugExistsParams{CourseID: ns.ParentID, Slug: s})
	case TableLessons:
		return a.queries.LessonSlugExists(ctx, store.LessonSlugExistsParams{ModuleID: ns.ParentID, Slug: s})
	default:
		return 0, fmt.Errorf("unknown slug namespace %q", ns.Table)
	}
}
