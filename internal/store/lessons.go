package store

import (
	"context"
	"database/sql"
	"time"
)

// Lesson is a lesson row; its slug is unique within its module. Lessons have
// no visibility flags of their own: access follows the owning course.
type Lesson struct {
	ID        int64     `json:"id"`
	ModuleID  int64     `json:"module_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const lessonColumns = `id, module_id, slug, title, body, position, created_at, updated_at`

func scanLesson(row *sql.Row) (Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.ModuleID, &l.Slug, &l.Title, &l.Body, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const createLesson = `
INSERT INTO lessons (module_id, slug, title, body, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + lessonColumns

// CreateLessonParams holds the parameters for CreateLesson.
type CreateLessonParams struct {
	ModuleID  int64
	Slug      string
	Title     string
	Body      string
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateLesson inserts a new lesson.
func (q *Queries) CreateLesson(ctx context.Context, arg CreateLessonParams) (Lesson, error) {
	row := q.db.QueryRowContext(ctx, createLesson,
		arg.ModuleID, arg.Slug, arg.Title, arg.Body, arg.Position, arg.CreatedAt, arg.UpdatedAt)
	return scanLesson(row)
}

const getLessonByID = `SELECT ` + lessonColumns + ` FROM lessons WHERE id = ?`

// GetLessonByID loads a lesson by id.
func (q *Queries) GetLessonByID(ctx context.Context, id int64) (Lesson, error) {
	return scanLesson(q.db.QueryRowContext(ctx, getLessonByID, id))
}

const getLessonBySlug = `SELECT ` + lessonColumns + ` FROM lessons WHERE module_id = ? AND slug = ?`

// GetLessonBySlugParams holds the parameters for GetLessonBySlug.
type GetLessonBySlugParams struct {
	ModuleID int64
	Slug     string
}

// GetLessonBySlug loads a lesson by its module-scoped slug.
func (q *Queries) GetLessonBySlug(ctx context.Context, arg GetLessonBySlugParams) (Lesson, error) {
	return scanLesson(q.db.QueryRowContext(ctx, getLessonBySlug, arg.ModuleID, arg.Slug))
}

const listLessonsByModule = `
SELECT ` + lessonColumns + ` FROM lessons WHERE module_id = ? ORDER BY position, id
`

// ListLessonsByModule returns all lessons of a module in position order.
func (q *Queries) ListLessonsByModule(ctx context.Context, moduleID int64) ([]Lesson, error) {
	rows, err := q.db.QueryContext(ctx, listLessonsByModule, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Slug, &l.Title, &l.Body, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const updateLesson = `
UPDATE lessons SET title = ?, body = ?, position = ?, updated_at = ? WHERE id = ?
RETURNING ` + lessonColumns

// UpdateLessonParams holds the parameters for UpdateLesson.
type UpdateLessonParams struct {
	Title     string
	Body      string
	Position  int64
	UpdatedAt time.Time
	ID        int64
}

// UpdateLesson updates a lesson's mutable fields. The slug never changes.
func (q *Queries) UpdateLesson(ctx context.Context, arg UpdateLessonParams) (Lesson, error) {
	row := q.db.QueryRowContext(ctx, updateLesson, arg.Title, arg.Body, arg.Position, arg.UpdatedAt, arg.ID)
	return scanLesson(row)
}

const deleteLesson = `DELETE FROM lessons WHERE id = ?`

// DeleteLesson removes a lesson.
func (q *Queries) DeleteLesson(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteLesson, id)
	return err
}

const lessonSlugExists = `SELECT COUNT(*) FROM lessons WHERE module_id = ? AND slug = ?`

// LessonSlugExistsParams holds the parameters for LessonSlugExists.
type LessonSlugExistsParams struct {
	ModuleID int64
	Slug     string
}

// LessonSlugExists returns the number of lessons in the module using the slug.
func (q *Queries) LessonSlugExists(ctx context.Context, arg LessonSlugExistsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, lessonSlugExists, arg.ModuleID, arg.Slug).Scan(&n)
	return n, err
}

const getCourseForLesson = `
SELECT c.id, c.slug, c.title, c.body, c.owner_id, c.published, c.is_paid, c.publish_at, c.created_at, c.updated_at
FROM courses c
JOIN course_modules m ON m.course_id = c.id
JOIN lessons l ON l.module_id = m.id
WHERE l.id = ?
`

// GetCourseForLesson resolves the course owning a lesson, for visibility
// decisions on lesson reads.
func (q *Queries) GetCourseForLesson(ctx context.Context, lessonID int64) (Course, error) {
	return scanCourse(q.db.QueryRowContext(ctx, getCourseForLesson, lessonID))
}
