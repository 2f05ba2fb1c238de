package store

import (
	"context"
	"database/sql"
	"time"
)

// Course is a course row. Modules and lessons hang off it; their visibility
// is decided from the course's metadata.
type Course struct {
	ID        int64        `json:"id"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	OwnerID   string       `json:"owner_id"`
	Published bool         `json:"published"`
	IsPaid    bool         `json:"is_paid"`
	PublishAt sql.NullTime `json:"publish_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

const courseColumns = `id, slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at`

func scanCourse(row *sql.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Body, &c.OwnerID, &c.Published, &c.IsPaid, &c.PublishAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const createCourse = `
INSERT INTO courses (slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + courseColumns

// CreateCourseParams holds the parameters for CreateCourse.
type CreateCourseParams struct {
	Slug      string
	Title     string
	Body      string
	OwnerID   string
	Published bool
	IsPaid    bool
	PublishAt sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCourse inserts a new course.
func (q *Queries) CreateCourse(ctx context.Context, arg CreateCourseParams) (Course, error) {
	row := q.db.QueryRowContext(ctx, createCourse,
		arg.Slug, arg.Title, arg.Body, arg.OwnerID, arg.Published, arg.IsPaid, arg.PublishAt, arg.CreatedAt, arg.UpdatedAt)
	return scanCourse(row)
}

const getCourseByID = `SELECT ` + courseColumns + ` FROM courses WHERE id = ?`

// GetCourseByID loads a course by id.
func (q *Queries) GetCourseByID(ctx context.Context, id int64) (Course, error) {
	return scanCourse(q.db.QueryRowContext(ctx, getCourseByID, id))
}

const getCourseBySlug = `SELECT ` + courseColumns + ` FROM courses WHERE slug = ?`

// GetCourseBySlug loads a course by slug.
func (q *Queries) GetCourseBySlug(ctx context.Context, slug string) (Course, error) {
	return scanCourse(q.db.QueryRowContext(ctx, getCourseBySlug, slug))
}

const listPublishedCourses = `
SELECT ` + courseColumns + ` FROM courses
WHERE published = 1
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListPublishedCoursesParams holds the parameters for ListPublishedCourses.
type ListPublishedCoursesParams struct {
	Limit  int64
	Offset int64
}

// ListPublishedCourses returns a page of published courses, newest first.
func (q *Queries) ListPublishedCourses(ctx context.Context, arg ListPublishedCoursesParams) ([]Course, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedCourses, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.Body, &c.OwnerID, &c.Published, &c.IsPaid, &c.PublishAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countPublishedCourses = `SELECT COUNT(*) FROM courses WHERE published = 1`

// CountPublishedCourses returns the number of published courses.
func (q *Queries) CountPublishedCourses(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPublishedCourses).Scan(&n)
	return n, err
}

const updateCourse = `
UPDATE courses SET title = ?, body = ?, published = ?, is_paid = ?, publish_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + courseColumns

// UpdateCourseParams holds the parameters for UpdateCourse. No slug: slugs
// are immutable after creation.
type UpdateCourseParams struct {
	Title     string
	Body      string
	Published bool
	IsPaid    bool
	PublishAt sql.NullTime
	UpdatedAt time.Time
	ID        int64
}

// UpdateCourse updates a course's mutable fields.
func (q *Queries) UpdateCourse(ctx context.Context, arg UpdateCourseParams) (Course, error) {
	row := q.db.QueryRowContext(ctx, updateCourse,
		arg.Title, arg.Body, arg.Published, arg.IsPaid, arg.PublishAt, arg.UpdatedAt, arg.ID)
	return scanCourse(row)
}

const deleteCourse = `DELETE FROM courses WHERE id = ?`

// DeleteCourse removes a course and, via FK cascade, its modules and lessons.
func (q *Queries) DeleteCourse(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCourse, id)
	return err
}

const courseSlugExists = `SELECT COUNT(*) FROM courses WHERE slug = ?`

// CourseSlugExists returns the number of courses using the given slug.
func (q *Queries) CourseSlugExists(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, courseSlugExists, slug).Scan(&n)
	return n, err
}

const publishDueCourses = `
UPDATE courses SET published = 1, updated_at = ?
WHERE published = 0 AND publish_at IS NOT NULL AND publish_at <= ?
`

// PublishDueCoursesParams holds the parameters for PublishDueCourses.
type PublishDueCoursesParams struct {
	UpdatedAt time.Time
	Now       time.Time
}

// PublishDueCourses flips scheduled courses whose publish time has passed.
func (q *Queries) PublishDueCourses(ctx context.Context, arg PublishDueCoursesParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, publishDueCourses, arg.UpdatedAt, arg.Now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
