package store

import (
	"context"
	"fmt"
	"time"
)

// Tag is a deduplicated label shared by every content type.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentType names a taggable content type and selects its junction table.
type ContentType string

// Taggable content types.
const (
	ContentArticle ContentType = "article"
	ContentCourse  ContentType = "course"
	ContentLesson  ContentType = "lesson"
	ContentProject ContentType = "project"
)

// junctionSpec maps a content type to its junction table and FK column.
// The table and column names come from this fixed map, never from input.
type junctionSpec struct {
	table  string
	column string
}

var junctions = map[ContentType]junctionSpec{
	ContentArticle: {table: "article_tags", column: "article_id"},
	ContentCourse:  {table: "course_tags", column: "course_id"},
	ContentLesson:  {table: "lesson_tags", column: "lesson_id"},
	ContentProject: {table: "project_tags", column: "project_id"},
}

// ContentTypes returns every taggable content type. The cascading tag delete
// walks this list so a tag row is never removed while junction rows remain.
func ContentTypes() []ContentType {
	return []ContentType{ContentArticle, ContentCourse, ContentLesson, ContentProject}
}

func junction(ct ContentType) (junctionSpec, error) {
	j, ok := junctions[ct]
	if !ok {
		return junctionSpec{}, fmt.Errorf("unknown content type %q", ct)
	}
	return j, nil
}

const createTag = `
INSERT INTO tags (name, created_at) VALUES (?, ?)
RETURNING id, name, created_at
`

// CreateTagParams holds the parameters for CreateTag.
type CreateTagParams struct {
	Name      string
	CreatedAt time.Time
}

// CreateTag inserts a new tag. The unique index on lower(name) rejects
// case-insensitive duplicates.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	row := q.db.QueryRowContext(ctx, createTag, arg.Name, arg.CreatedAt)
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
	return t, err
}

const getTagByID = `SELECT id, name, created_at FROM tags WHERE id = ?`

// GetTagByID loads a tag by id.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTagByID, id)
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
	return t, err
}

const getTagByName = `SELECT id, name, created_at FROM tags WHERE lower(name) = lower(?)`

// GetTagByName loads a tag by case-insensitive name match.
func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTagByName, name)
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.CreatedAt)
	return t, err
}

const listTags = `SELECT id, name, created_at FROM tags ORDER BY name LIMIT ? OFFSET ?`

// ListTagsParams holds the parameters for ListTags.
type ListTagsParams struct {
	Limit  int64
	Offset int64
}

// ListTags returns a page of tags in name order.
func (q *Queries) ListTags(ctx context.Context, arg ListTagsParams) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTags, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const countTags = `SELECT COUNT(*) FROM tags`

// CountTags returns the number of tags.
func (q *Queries) CountTags(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTags).Scan(&n)
	return n, err
}

const deleteTag = `DELETE FROM tags WHERE id = ?`

// DeleteTag removes a tag row. Callers must clear junction rows first; the
// taxonomy layer owns that ordering.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTag, id)
	return err
}

// CreateTagAssociation links a tag to a content row in the junction table
// for the given content type.
func (q *Queries) CreateTagAssociation(ctx context.Context, ct ContentType, contentID, tagID int64) error {
	j, err := junction(ct)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s, tag_id) VALUES (?, ?)", j.table, j.column)
	_, err = q.db.ExecContext(ctx, query, contentID, tagID)
	return err
}

// DeleteTagAssociations removes every tag association for a content row.
// Returns the number of rows removed.
func (q *Queries) DeleteTagAssociations(ctx context.Context, ct ContentType, contentID int64) (int64, error) {
	j, err := junction(ct)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", j.table, j.column)
	res, err := q.db.ExecContext(ctx, query, contentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTagAssociationsByTag removes every association of a tag from the
// junction table for the given content type. Used by the cascading delete.
func (q *Queries) DeleteTagAssociationsByTag(ctx context.Context, ct ContentType, tagID int64) (int64, error) {
	j, err := junction(ct)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE tag_id = ?", j.table)
	res, err := q.db.ExecContext(ctx, query, tagID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTagsForContent returns the tags associated with a content row, in
// name order.
func (q *Queries) ListTagsForContent(ctx context.Context, ct ContentType, contentID int64) ([]Tag, error) {
	j, err := junction(ct)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT t.id, t.name, t.created_at
FROM tags t
JOIN %s jt ON jt.tag_id = t.id
WHERE jt.%s = ?
ORDER BY t.name`, j.table, j.column)
	rows, err := q.db.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// CountTagUsage returns the total number of junction rows referencing a tag
// across all content types.
func (q *Queries) CountTagUsage(ctx context.Context, tagID int64) (int64, error) {
	var total int64
	for _, ct := range ContentTypes() {
		j, err := junction(ct)
		if err != nil {
			return 0, err
		}
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tag_id = ?", j.table)
		var n int64
		if err := q.db.QueryRowContext(ctx, query, tagID).Scan(&n); err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
