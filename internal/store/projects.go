package store

import (
	"context"
	"database/sql"
	"time"
)

// Project is a portfolio project row.
type Project struct {
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

const projectColumns = `id, slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at`

func scanProject(row *sql.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.OwnerID, &p.Published, &p.IsPaid, &p.PublishAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createProject = `
INSERT INTO projects (slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + projectColumns

// CreateProjectParams holds the parameters for CreateProject.
type CreateProjectParams struct {
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

// CreateProject inserts a new project.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, createProject,
		arg.Slug, arg.Title, arg.Body, arg.OwnerID, arg.Published, arg.IsPaid, arg.PublishAt, arg.CreatedAt, arg.UpdatedAt)
	return scanProject(row)
}

const getProjectByID = `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

// GetProjectByID loads a project by id.
func (q *Queries) GetProjectByID(ctx context.Context, id int64) (Project, error) {
	return scanProject(q.db.QueryRowContext(ctx, getProjectByID, id))
}

const getProjectBySlug = `SELECT ` + projectColumns + ` FROM projects WHERE slug = ?`

// GetProjectBySlug loads a project by slug.
func (q *Queries) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	return scanProject(q.db.QueryRowContext(ctx, getProjectBySlug, slug))
}

const listPublishedProjects = `
SELECT ` + projectColumns + ` FROM projects
WHERE published = 1
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListPublishedProjectsParams holds the parameters for ListPublishedProjects.
type ListPublishedProjectsParams struct {
	Limit  int64
	Offset int64
}

// ListPublishedProjects returns a page of published projects, newest first.
func (q *Queries) ListPublishedProjects(ctx context.Context, arg ListPublishedProjectsParams) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedProjects, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.OwnerID, &p.Published, &p.IsPaid, &p.PublishAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countPublishedProjects = `SELECT COUNT(*) FROM projects WHERE published = 1`

// CountPublishedProjects returns the number of published projects.
func (q *Queries) CountPublishedProjects(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPublishedProjects).Scan(&n)
	return n, err
}

const updateProject = `
UPDATE projects SET title = ?, body = ?, published = ?, is_paid = ?, publish_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + projectColumns

// UpdateProjectParams holds the parameters for UpdateProject. No slug: slugs
// are immutable after creation.
type UpdateProjectParams struct {
	Title     string
	Body      string
	Published bool
	IsPaid    bool
	PublishAt sql.NullTime
	UpdatedAt time.Time
	ID        int64
}

// UpdateProject updates a project's mutable fields.
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	row := q.db.QueryRowContext(ctx, updateProject,
		arg.Title, arg.Body, arg.Published, arg.IsPaid, arg.PublishAt, arg.UpdatedAt, arg.ID)
	return scanProject(row)
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

// DeleteProject removes a project; junction rows go with it via FK cascade.
func (q *Queries) DeleteProject(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteProject, id)
	return err
}

const projectSlugExists = `SELECT COUNT(*) FROM projects WHERE slug = ?`

// ProjectSlugExists returns the number of projects using the given slug.
func (q *Queries) ProjectSlugExists(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, projectSlugExists, slug).Scan(&n)
	return n, err
}

const publishDueProjects = `
UPDATE projects SET published = 1, updated_at = ?
WHERE published = 0 AND publish_at IS NOT NULL AND publish_at <= ?
`

// PublishDueProjectsParams holds the parameters for PublishDueProjects.
type PublishDueProjectsParams struct {
	UpdatedAt time.Time
	Now       time.Time
}

// PublishDueProjects flips scheduled projects whose publish time has passed.
func (q *Queries) PublishDueProjects(ctx context.Context, arg PublishDueProjectsParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, publishDueProjects, arg.UpdatedAt, arg.Now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
