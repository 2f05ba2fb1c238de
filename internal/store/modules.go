package store

import (
	"context"
	"database/sql"
	"time"
)

// CourseModule is a module row; its slug is unique within its course.
type CourseModule struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const moduleColumns = `id, course_id, slug, title, position, created_at, updated_at`

func scanModule(row *sql.Row) (CourseModule, error) {
	var m CourseModule
	err := row.Scan(&m.ID, &m.CourseID, &m.Slug, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const createModule = `
INSERT INTO course_modules (course_id, slug, title, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + moduleColumns

// CreateModuleParams holds the parameters for CreateModule.
type CreateModuleParams struct {
	CourseID  int64
	Slug      string
	Title     string
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateModule inserts a new course module.
func (q *Queries) CreateModule(ctx context.Context, arg CreateModuleParams) (CourseModule, error) {
	row := q.db.QueryRowContext(ctx, createModule,
		arg.CourseID, arg.Slug, arg.Title, arg.Position, arg.CreatedAt, arg.UpdatedAt)
	return scanModule(row)
}

const getModuleByID = `SELECT ` + moduleColumns + ` FROM course_modules WHERE id = ?`

// GetModuleByID loads a module by id.
func (q *Queries) GetModuleByID(ctx context.Context, id int64) (CourseModule, error) {
	return scanModule(q.db.QueryRowContext(ctx, getModuleByID, id))
}

const getModuleBySlug = `SELECT ` + moduleColumns + ` FROM course_modules WHERE course_id = ? AND slug = ?`

// GetModuleBySlugParams holds the parameters for GetModuleBySlug.
type GetModuleBySlugParams struct {
	CourseID int64
	Slug     string
}

// GetModuleBySlug loads a module by its course-scoped slug.
func (q *Queries) GetModuleBySlug(ctx context.Context, arg GetModuleBySlugParams) (CourseModule, error) {
	return scanModule(q.db.QueryRowContext(ctx, getModuleBySlug, arg.CourseID, arg.Slug))
}

const listModulesByCourse = `
SELECT ` + moduleColumns + ` FROM course_modules WHERE course_id = ? ORDER BY position, id
`

// ListModulesByCourse returns all modules of a course in position order.
func (q *Queries) ListModulesByCourse(ctx context.Context, courseID int64) ([]CourseModule, error) {
	rows, err := q.db.QueryContext(ctx, listModulesByCourse, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CourseModule
	for rows.Next() {
		var m CourseModule
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Slug, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const updateModule = `
UPDATE course_modules SET title = ?, position = ?, updated_at = ? WHERE id = ?
RETURNING ` + moduleColumns

// UpdateModuleParams holds the parameters for UpdateModule.
type UpdateModuleParams struct {
	Title     string
	Position  int64
	UpdatedAt time.Time
	ID        int64
}

// UpdateModule updates a module's title and position. The slug never changes.
func (q *Queries) UpdateModule(ctx context.Context, arg UpdateModuleParams) (CourseModule, error) {
	row := q.db.QueryRowContext(ctx, updateModule, arg.Title, arg.Position, arg.UpdatedAt, arg.ID)
	return scanModule(row)
}

const deleteModule = `DELETE FROM course_modules WHERE id = ?`

// DeleteModule removes a module and, via FK cascade, its lessons.
func (q *Queries) DeleteModule(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteModule, id)
	return err
}

const moduleSlugExists = `SELECT COUNT(*) FROM course_modules WHERE course_id = ? AND slug = ?`

// ModuleSlugExistsParams holds the parameters for ModuleSlugExists.
type ModuleSlugExistsParams struct {
	CourseID int64
	Slug     string
}

// ModuleSlugExists returns the number of modules in the course using the slug.
func (q *Queries) ModuleSlugExists(ctx context.Context, arg ModuleSlugExistsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, moduleSlugExists, arg.CourseID, arg.Slug).Scan(&n)
	return n, err
}
