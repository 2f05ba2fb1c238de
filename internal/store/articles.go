package store

import (
	"context"
	"database/sql"
	"time"
)

// Article is a blog article row.
type Article struct {
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

const articleColumns = `id, slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at`

func scanArticle(row *sql.Row) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.OwnerID, &a.Published, &a.IsPaid, &a.PublishAt, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const createArticle = `
INSERT INTO articles (slug, title, body, owner_id, published, is_paid, publish_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + articleColumns

// CreateArticleParams holds the parameters for CreateArticle.
type CreateArticleParams struct {
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

// CreateArticle inserts a new article.
func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle,
		arg.Slug, arg.Title, arg.Body, arg.OwnerID, arg.Published, arg.IsPaid, arg.PublishAt, arg.CreatedAt, arg.UpdatedAt)
	return scanArticle(row)
}

const getArticleByID = `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

// GetArticleByID loads an article by id.
func (q *Queries) GetArticleByID(ctx context.Context, id int64) (Article, error) {
	return scanArticle(q.db.QueryRowContext(ctx, getArticleByID, id))
}

const getArticleBySlug = `SELECT ` + articleColumns + ` FROM articles WHERE slug = ?`

// GetArticleBySlug loads an article by slug.
func (q *Queries) GetArticleBySlug(ctx context.Context, slug string) (Article, error) {
	return scanArticle(q.db.QueryRowContext(ctx, getArticleBySlug, slug))
}

const listPublishedArticles = `
SELECT ` + articleColumns + ` FROM articles
WHERE published = 1
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

// ListPublishedArticlesParams holds the parameters for ListPublishedArticles.
type ListPublishedArticlesParams struct {
	Limit  int64
	Offset int64
}

// ListPublishedArticles returns a page of published articles, newest first.
func (q *Queries) ListPublishedArticles(ctx context.Context, arg ListPublishedArticlesParams) ([]Article, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedArticles, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.OwnerID, &a.Published, &a.IsPaid, &a.PublishAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const countPublishedArticles = `SELECT COUNT(*) FROM articles WHERE published = 1`

// CountPublishedArticles returns the number of published articles.
func (q *Queries) CountPublishedArticles(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPublishedArticles).Scan(&n)
	return n, err
}

const updateArticle = `
UPDATE articles SET title = ?, body = ?, published = ?, is_paid = ?, publish_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + articleColumns

// UpdateArticleParams holds the parameters for UpdateArticle. The slug is
// deliberately absent: slugs are immutable after creation.
type UpdateArticleParams struct {
	Title     string
	Body      string
	Published bool
	IsPaid    bool
	PublishAt sql.NullTime
	UpdatedAt time.Time
	ID        int64
}

// UpdateArticle updates an article's mutable fields.
func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticle,
		arg.Title, arg.Body, arg.Published, arg.IsPaid, arg.PublishAt, arg.UpdatedAt, arg.ID)
	return scanArticle(row)
}

const deleteArticle = `DELETE FROM articles WHERE id = ?`

// DeleteArticle removes an article; junction rows go with it via FK cascade.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteArticle, id)
	return err
}

const articleSlugExists = `SELECT COUNT(*) FROM articles WHERE slug = ?`

// ArticleSlugExists returns the number of articles using the given slug.
func (q *Queries) ArticleSlugExists(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, articleSlugExists, slug).Scan(&n)
	return n, err
}

const publishDueArticles = `
UPDATE articles SET published = 1, updated_at = ?
WHERE published = 0 AND publish_at IS NOT NULL AND publish_at <= ?
`

// PublishDueArticlesParams holds the parameters for PublishDueArticles.
type PublishDueArticlesParams struct {
	UpdatedAt time.Time
	Now       time.Time
}

// PublishDueArticles flips scheduled articles whose publish time has passed.
func (q *Queries) PublishDueArticles(ctx context.Context, arg PublishDueArticlesParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, publishDueArticles, arg.UpdatedAt, arg.Now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
