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

	"github.com/atelierhq/atelier-go/internal/access"
	"github.com/atelierhq/atelier-go/internal/middleware"
	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/render"
	"github.com/atelierhq/atelier-go/internal/slug"
	"github.com/atelierhq/atelier-go/internal/store"
	"github.com/atelierhq/atelier-go/internal/taxonomy"
)

// ListCourses returns a page of published courses projected per viewer.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	limit, offset, page := pagination(r)

	courses, err := h.queries.ListPublishedCourses(r.Context(), store.ListPublishedCoursesParams{Limit: limit, Offset: offset})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing courses: %v", model.ErrDatabase, err))
		return
	}
	total, err := h.queries.CountPublishedCourses(r.Context())
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: counting courses: %v", model.ErrDatabase, err))
		return
	}

	items := make([]any, 0, len(courses))
	for _, c := range courses {
		d := access.Resolve(p, courseMeta(c))
		switch d.Access {
		case model.AccessFull:
			payload, err := h.coursePayload(r, c)
			if err != nil {
				writeModelError(w, err)
				return
			}
			items = append(items, payload)
		case model.AccessPreview:
			items = append(items, newPreview(c.Slug, c.Title, c.Body, d))
		}
	}

	WriteJSON(w, http.StatusOK, items, &Meta{Page: page, PerPage: limit, Total: total})
}

// GetCourse serves one course by slug, projected per the viewer's visibility
// decision.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	c, err := h.courseBySlug(r, chi.URLParam(r, "slug"))
	if err != nil {
		writeModelError(w, err)
		return
	}

	d := access.Resolve(p, courseMeta(c))
	switch d.Access {
	case model.AccessNotFound:
		writeModelError(w, model.ErrNotFound)
	case model.AccessPreview:
		WriteJSON(w, http.StatusOK, newPreview(c.Slug, c.Title, c.Body, d), nil)
	case model.AccessFull:
		payload, err := h.coursePayload(r, c)
		if err != nil {
			writeModelError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, payload, nil)
	}
}

// CreateCourse creates a course owned by the caller.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	var req contentRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	s, err := h.allocator.Allocate(r.Context(), req.Title, slug.Courses())
	if err != nil {
		writeModelError(w, err)
		return
	}

	now := time.Now()
	params := store.CreateCourseParams{
		Slug:      s,
		Title:     req.Title,
		Body:      req.Body,
		OwnerID:   p.IdentityID,
		Published: req.Published,
		IsPaid:    req.IsPaid,
		PublishAt: nullTime(req.PublishAt),
		CreatedAt: now,
		UpdatedAt: now,
	}

	c, err := h.queries.CreateCourse(r.Context(), params)
	if err != nil {
		s, retryErr := h.allocator.Retry(r.Context(), req.Title, slug.Courses(), err)
		if retryErr != nil {
			writeModelError(w, fmt.Errorf("%w: creating course: %v", model.ErrDatabase, retryErr))
			return
		}
		params.Slug = s
		c, err = h.queries.CreateCourse(r.Context(), params)
		if err != nil {
			writeModelError(w, createError("creating course", err))
			return
		}
	}

	if len(req.Tags) > 0 {
		ref := taxonomy.ContentRef{Type: store.ContentCourse, ID: c.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.coursePayload(r, c)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, payload, nil)
}

// UpdateCourse updates a course's mutable fields; the slug never changes.
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	var req contentRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Slug != nil {
		writeModelError(w, fmt.Errorf("%w: slug is immutable", model.ErrValidation))
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	existing, err := h.courseByID(r, id)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	c, err := h.queries.UpdateCourse(r.Context(), store.UpdateCourseParams{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		IsPaid:    req.IsPaid,
		PublishAt: nullTime(req.PublishAt),
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating course: %v", model.ErrDatabase, err))
		return
	}

	if req.Tags != nil {
		ref := taxonomy.ContentRef{Type: store.ContentCourse, ID: c.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.coursePayload(r, c)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload, nil)
}

// DeleteCourse removes a course and, via FK cascades, its modules and
// lessons.
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	existing, err := h.courseByID(r, id)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, existing.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	if err := h.queries.DeleteCourse(r.Context(), id); err != nil {
		writeModelError(w, fmt.Errorf("%w: deleting course: %v", model.ErrDatabase, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceCourseTags replaces the course's tag set.
func (h *Handler) ReplaceCourseTags(w http.ResponseWriter, r *http.Request) {
	h.replaceTags(w, r, store.ContentCourse, func(req *http.Request, id int64) (string, error) {
		c, err := h.queries.GetCourseByID(req.Context(), id)
		return c.OwnerID, err
	})
}

// modulePayload is the structural projection of a course module. The outline
// is visible to preview viewers; lesson bodies are not.
type modulePayload struct {
	ID       int64     `json:"id"`
	CourseID int64     `json:"course_id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Position int64     `json:"position"`
	Created  time.Time `json:"created_at"`
	Updated  time.Time `json:"updated_at"`
}

func newModulePayload(m store.CourseModule) modulePayload {
	return modulePayload{
		ID:       m.ID,
		CourseID: m.CourseID,
		Slug:     m.Slug,
		Title:    m.Title,
		Position: m.Position,
		Created:  m.CreatedAt,
		Updated:  m.UpdatedAt,
	}
}

// moduleRequest is the create/update body for modules.
type moduleRequest struct {
	Slug     *string `json:"slug,omitempty"`
	Title    string  `json:"title"`
	Position int64   `json:"position"`
}

// ListModules returns a course's module outline in position order. The
// outline is served to anyone who can at least preview the course.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	c, err := h.courseBySlug(r, chi.URLParam(r, "slug"))
	if err != nil {
		writeModelError(w, err)
		return
	}
	if access.Resolve(p, courseMeta(c)).Access == model.AccessNotFound {
		writeModelError(w, model.ErrNotFound)
		return
	}

	modules, err := h.queries.ListModulesByCourse(r.Context(), c.ID)
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing modules: %v", model.ErrDatabase, err))
		return
	}
	items := make([]modulePayload, 0, len(modules))
	for _, m := range modules {
		items = append(items, newModulePayload(m))
	}
	WriteJSON(w, http.StatusOK, items, nil)
}

// CreateModule adds a module to a course. The module slug is unique within
// the course only; two courses can both have an "intro" module.
func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	courseID, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}
	c, err := h.courseByID(r, courseID)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, c.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	var req moduleRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	ns := slug.ModulesOf(courseID)
	s, err := h.allocator.Allocate(r.Context(), req.Title, ns)
	if err != nil {
		writeModelError(w, err)
		return
	}

	now := time.Now()
	params := store.CreateModuleParams{
		CourseID:  courseID,
		Slug:      s,
		Title:     req.Title,
		Position:  req.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m, err := h.queries.CreateModule(r.Context(), params)
	if err != nil {
		s, retryErr := h.allocator.Retry(r.Context(), req.Title, ns, err)
		if retryErr != nil {
			writeModelError(w, fmt.Errorf("%w: creating module: %v", model.ErrDatabase, retryErr))
			return
		}
		params.Slug = s
		m, err = h.queries.CreateModule(r.Context(), params)
		if err != nil {
			writeModelError(w, createError("creating module", err))
			return
		}
	}

	WriteJSON(w, http.StatusCreated, newModulePayload(m), nil)
}

// UpdateModule updates a module's title and position; the slug never
// changes.
func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	var req moduleRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Slug != nil {
		writeModelError(w, fmt.Errorf("%w: slug is immutable", model.ErrValidation))
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	m, err := h.queries.GetModuleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading module: %v", model.ErrDatabase, err))
		return
	}
	c, err := h.courseByID(r, m.CourseID)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, c.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	updated, err := h.queries.UpdateModule(r.Context(), store.UpdateModuleParams{
		Title:     req.Title,
		Position:  req.Position,
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating module: %v", model.ErrDatabase, err))
		return
	}
	WriteJSON(w, http.StatusOK, newModulePayload(updated), nil)
}

// DeleteModule removes a module and its lessons.
func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	m, err := h.queries.GetModuleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading module: %v", model.ErrDatabase, err))
		return
	}
	c, err := h.courseByID(r, m.CourseID)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, c.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	if err := h.queries.DeleteModule(r.Context(), id); err != nil {
		writeModelError(w, fmt.Errorf("%w: deleting module: %v", model.ErrDatabase, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lessonPayload is the full projection of a lesson.
type lessonPayload struct {
	Access   string    `json:"access"`
	ID       int64     `json:"id"`
	ModuleID int64     `json:"module_id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	BodyHTML string    `json:"body_html"`
	Position int64     `json:"position"`
	Tags     []string  `json:"tags"`
	Created  time.Time `json:"created_at"`
	Updated  time.Time `json:"updated_at"`
}

func (h *Handler) lessonPayload(r *http.Request, l store.Lesson) (lessonPayload, error) {
	html, err := render.HTML(l.Body)
	if err != nil {
		return lessonPayload{}, err
	}
	tags, err := h.tags.TagsFor(r.Context(), taxonomy.ContentRef{Type: store.ContentLesson, ID: l.ID})
	if err != nil {
		return lessonPayload{}, err
	}
	return lessonPayload{
		Access:   model.AccessFull.String(),
		ID:       l.ID,
		ModuleID: l.ModuleID,
		Slug:     l.Slug,
		Title:    l.Title,
		Body:     l.Body,
		BodyHTML: html,
		Position: l.Position,
		Tags:     tagNames(tags),
		Created:  l.CreatedAt,
		Updated:  l.UpdatedAt,
	}, nil
}

// lessonRequest is the create/update body for lessons.
type lessonRequest struct {
	Slug     *string  `json:"slug,omitempty"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Position int64    `json:"position"`
	Tags     []string `json:"tags,omitempty"`
}

// ListLessons returns a module's lessons. Lessons have no visibility flags
// of their own: the owning course's decision applies, so preview viewers get
// lesson previews and full viewers get bodies.
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	c, m, err := h.moduleByPath(r)
	if err != nil {
		writeModelError(w, err)
		return
	}

	d := access.Resolve(p, courseMeta(c))
	if d.Access == model.AccessNotFound {
		writeModelError(w, model.ErrNotFound)
		return
	}

	lessons, err := h.queries.ListLessonsByModule(r.Context(), m.ID)
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: listing lessons: %v", model.ErrDatabase, err))
		return
	}

	items := make([]any, 0, len(lessons))
	for _, l := range lessons {
		if d.Access == model.AccessPreview {
			items = append(items, newPreview(l.Slug, l.Title, l.Body, d))
			continue
		}
		payload, err := h.lessonPayload(r, l)
		if err != nil {
			writeModelError(w, err)
			return
		}
		items = append(items, payload)
	}
	WriteJSON(w, http.StatusOK, items, nil)
}

// GetLesson serves one lesson, gated by the owning course's visibility.
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	c, m, err := h.moduleByPath(r)
	if err != nil {
		writeModelError(w, err)
		return
	}

	l, err := h.queries.GetLessonBySlug(r.Context(), store.GetLessonBySlugParams{
		ModuleID: m.ID,
		Slug:     chi.URLParam(r, "lessonSlug"),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading lesson: %v", model.ErrDatabase, err))
		return
	}

	d := access.Resolve(p, courseMeta(c))
	switch d.Access {
	case model.AccessNotFound:
		writeModelError(w, model.ErrNotFound)
	case model.AccessPreview:
		WriteJSON(w, http.StatusOK, newPreview(l.Slug, l.Title, l.Body, d), nil)
	case model.AccessFull:
		payload, err := h.lessonPayload(r, l)
		if err != nil {
			writeModelError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, payload, nil)
	}
}

// CreateLesson adds a lesson to a module. The lesson slug is unique within
// the module only.
func (h *Handler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	moduleID, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}
	m, err := h.queries.GetModuleByID(r.Context(), moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeModelError(w, model.ErrNotFound)
			return
		}
		writeModelError(w, fmt.Errorf("%w: loading module: %v", model.ErrDatabase, err))
		return
	}
	c, err := h.courseByID(r, m.CourseID)
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := canManage(p, c.OwnerID); err != nil {
		writeModelError(w, err)
		return
	}

	var req lessonRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	ns := slug.LessonsOf(moduleID)
	s, err := h.allocator.Allocate(r.Context(), req.Title, ns)
	if err != nil {
		writeModelError(w, err)
		return
	}

	now := time.Now()
	params := store.CreateLessonParams{
		ModuleID:  moduleID,
		Slug:      s,
		Title:     req.Title,
		Body:      req.Body,
		Position:  req.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	l, err := h.queries.CreateLesson(r.Context(), params)
	if err != nil {
		s, retryErr := h.allocator.Retry(r.Context(), req.Title, ns, err)
		if retryErr != nil {
			writeModelError(w, fmt.Errorf("%w: creating lesson: %v", model.ErrDatabase, retryErr))
			return
		}
		params.Slug = s
		l, err = h.queries.CreateLesson(r.Context(), params)
		if err != nil {
			writeModelError(w, createError("creating lesson", err))
			return
		}
	}

	if len(req.Tags) > 0 {
		ref := taxonomy.ContentRef{Type: store.ContentLesson, ID: l.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.lessonPayload(r, l)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, payload, nil)
}

// UpdateLesson updates a lesson's mutable fields; the slug never changes.
func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}

	var req lessonRequest
	if err := decode(r, &req); err != nil {
		writeModelError(w, err)
		return
	}
	if req.Slug != nil {
		writeModelError(w, fmt.Errorf("%w: slug is immutable", model.ErrValidation))
		return
	}
	if req.Title == "" {
		writeModelError(w, fmt.Errorf("%w: title is required", model.ErrValidation))
		return
	}

	if err := h.authorizeLesson(r, p, id); err != nil {
		writeModelError(w, err)
		return
	}

	l, err := h.queries.UpdateLesson(r.Context(), store.UpdateLessonParams{
		Title:     req.Title,
		Body:      req.Body,
		Position:  req.Position,
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		writeModelError(w, fmt.Errorf("%w: updating lesson: %v", model.ErrDatabase, err))
		return
	}

	if req.Tags != nil {
		ref := taxonomy.ContentRef{Type: store.ContentLesson, ID: l.ID}
		if _, err := h.tags.Reconcile(r.Context(), req.Tags, ref); err != nil {
			writeModelError(w, err)
			return
		}
	}

	payload, err := h.lessonPayload(r, l)
	if err != nil {
		writeModelError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload, nil)
}

// DeleteLesson removes a lesson.
func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())

	id, err := idParam(r, "id")
	if err != nil {
		writeModelError(w, err)
		return
	}
	if err := h.authorizeLesson(r, p, id); err != nil {
		writeModelError(w, err)
		return
	}
	if err := h.queries.DeleteLesson(r.Context(), id); err != nil {
		writeModelError(w, fmt.Errorf("%w: deleting lesson: %v", model.ErrDatabase, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceLessonTags replaces a lesson's tag set. Ownership is resolved
// through the owning course.
func (h *Handler) ReplaceLessonTags(w http.ResponseWriter, r *http.Request) {
	h.replaceTags(w, r, store.ContentLesson, func(req *http.Request, id int64) (string, error) {
		if _, err := h.queries.GetLessonByID(req.Context(), id); err != nil {
			return "", err
		}
		c, err := h.queries.GetCourseForLesson(req.Context(), id)
		return c.OwnerID, err
	})
}

// authorizeLesson checks the caller may mutate a lesson by walking up to the
// owning course.
func (h *Handler) authorizeLesson(r *http.Request, p *model.Principal, lessonID int64) error {
	if _, err := h.queries.GetLessonByID(r.Context(), lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("%w: loading lesson: %v", model.ErrDatabase, err)
	}
	c, err := h.queries.GetCourseForLesson(r.Context(), lessonID)
	if err != nil {
		return fmt.Errorf("%w: resolving owning course: %v", model.ErrDatabase, err)
	}
	return canManage(p, c.OwnerID)
}

// moduleByPath resolves the course and module named by the request path.
func (h *Handler) moduleByPath(r *http.Request) (store.Course, store.CourseModule, error) {
	c, err := h.courseBySlug(r, chi.URLParam(r, "slug"))
	if err != nil {
		return store.Course{}, store.CourseModule{}, err
	}
	m, err := h.queries.GetModuleBySlug(r.Context(), store.GetModuleBySlugParams{
		CourseID: c.ID,
		Slug:     chi.URLParam(r, "moduleSlug"),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Course{}, store.CourseModule{}, model.ErrNotFound
		}
		return store.Course{}, store.CourseModule{}, fmt.Errorf("%w: loading module: %v", model.ErrDatabase, err)
	}
	return c, m, nil
}

func (h *Handler) courseBySlug(r *http.Request, s string) (store.Course, error) {
	c, err := h.queries.GetCourseBySlug(r.Context(), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Course{}, model.ErrNotFound
		}
		return store.Course{}, fmt.Errorf("%w: loading course: %v", model.ErrDatabase, err)
	}
	return c, nil
}

func (h *Handler) courseByID(r *http.Request, id int64) (store.Course, error) {
	c, err := h.queries.GetCourseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Course{}, model.ErrNotFound
		}
		return store.Course{}, fmt.Errorf("%w: loading course: %v", model.ErrDatabase, err)
	}
	return c, nil
}

func courseMeta(c store.Course) model.ContentMeta {
	return model.ContentMeta{OwnerID: c.OwnerID, Published: c.Published, IsPaid: c.IsPaid}
}

func (h *Handler) coursePayload(r *http.Request, c store.Course) (contentPayload, error) {
	tags, err := h.tags.TagsFor(r.Context(), taxonomy.ContentRef{Type: store.ContentCourse, ID: c.ID})
	if err != nil {
		return contentPayload{}, err
	}
	return newContent(c.ID, c.Slug, c.Title, c.Body, c.OwnerID, c.Published, c.IsPaid,
		c.PublishAt, tagNames(tags), c.CreatedAt, c.UpdatedAt)
}
