// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"time"

	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/render"
	"github.com/atelierhq/atelier-go/internal/store"
)

// previewPayload is the reduced projection served when a visibility decision
// grants preview access only. It never carries the body.
type previewPayload struct {
	Access  string `json:"access"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Hint    string `json:"hint,omitempty"`
}

func newPreview(slug, title, body string, d model.Decision) previewPayload {
	return previewPayload{
		Access:  d.Access.String(),
		Slug:    slug,
		Title:   title,
		Excerpt: render.Excerpt(body),
		Hint:    d.Hint,
	}
}

// contentPayload is the full projection of an article, course or project.
type contentPayload struct {
	Access    string     `json:"access"`
	ID        int64      `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	BodyHTML  string     `json:"body_html"`
	OwnerID   string     `json:"owner_id"`
	Published bool       `json:"published"`
	IsPaid    bool       `json:"is_paid"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newContent(id int64, slug, title, body, ownerID string, published, isPaid bool,
	publishAt sql.NullTime, tags []string, createdAt, updatedAt time.Time) (contentPayload, error) {
	html, err := render.HTML(body)
	if err != nil {
		return contentPayload{}, err
	}
	p := contentPayload{
		Access:    model.AccessFull.String(),
		ID:        id,
		Slug:      slug,
		Title:     title,
		Body:      body,
		BodyHTML:  html,
		OwnerID:   ownerID,
		Published: published,
		IsPaid:    isPaid,
		Tags:      tags,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if tags == nil {
		p.Tags = []string{}
	}
	if publishAt.Valid {
		t := publishAt.Time
		p.PublishAt = &t
	}
	return p, nil
}

// contentRequest is the shared create/update body for articles, courses and
// projects. Slug is accepted only to reject it: slugs are derived from the
// title at creation and immutable afterwards.
type contentRequest struct {
	Slug      *string    `json:"slug,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Published bool       `json:"published"`
	IsPaid    bool       `json:"is_paid"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// tagNames projects tag rows to their names for response payloads.
func tagNames(tags []store.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
