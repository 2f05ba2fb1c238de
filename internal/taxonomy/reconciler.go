// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package taxonomy reconciles free-form tag labels into deduplicated tag
// rows and their junction-table associations, and performs safe cascading
// tag removal.
package taxonomy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atelierhq/atelier-go/internal/model"
	"github.com/atelierhq/atelier-go/internal/store"
)

// ContentRef identifies a taggable content row.
type ContentRef struct {
	Type store.ContentType
	ID   int64
}

// Reconciler owns tag upserts and association replacement.
type Reconciler struct {
	queries *store.Queries
}

// NewReconciler creates a Reconciler over the given query layer.
func NewReconciler(queries *store.Queries) *Reconciler {
	return &Reconciler{queries: queries}
}

// Reconcile replaces the full tag set of a content row with the set derived
// from names. Existing associations are cleared first, then tags are
// upserted by case-insensitive name and re-associated. The destructive step
// runs before any insert so a mid-sequence abort leaves "no tags" rather
// than duplicates. Returns the resolved tag ids in input order.
func (r *Reconciler) Reconcile(ctx context.Context, names []string, ref ContentRef) ([]int64, error) {
	// Full-replace semantics: clear, never diff.
	if _, err := r.queries.DeleteTagAssociations(ctx, ref.Type, ref.ID); err != nil {
		return nil, fmt.Errorf("%w: clearing tag associations: %v", model.ErrDatabase, err)
	}

	distinct := dedupeNames(names)
	if len(distinct) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(distinct))
	for _, name := range distinct {
		tag, err := r.upsertTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := r.queries.CreateTagAssociation(ctx, ref.Type, ref.ID, tag.ID); err != nil {
			return nil, fmt.Errorf("%w: associating tag %d: %v", model.ErrDatabase, tag.ID, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// TagsFor returns the full tag rows associated with a content row, for
// response projection.
func (r *Reconciler) TagsFor(ctx context.Context, ref ContentRef) ([]store.Tag, error) {
	tags, err := r.queries.ListTagsForContent(ctx, ref.Type, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tags: %v", model.ErrDatabase, err)
	}
	return tags, nil
}

// DeleteTag removes a tag and every association referencing it. Junction
// cleanup is explicit and authoritative here; the schema deliberately has no
// ON DELETE CASCADE on the tag FKs. Cleanup failures per table are logged
// and the remaining tables are still attempted; only a failure of the final
// tag-row deletion is fatal.
func (r *Reconciler) DeleteTag(ctx context.Context, id int64) error {
	if _, err := r.queries.GetTagByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: tag %d", model.ErrNotFound, id)
		}
		return fmt.Errorf("%w: loading tag %d: %v", model.ErrDatabase, id, err)
	}

	var cleanupFailed bool
	for _, ct := range store.ContentTypes() {
		if _, err := r.queries.DeleteTagAssociationsByTag(ctx, ct, id); err != nil {
			cleanupFailed = true
			slog.Warn("tag association cleanup failed",
				"tag_id", id,
				"content_type", string(ct),
				"error", err,
			)
		}
	}

	if err := r.queries.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("%w: deleting tag %d: %v", model.ErrDatabase, id, err)
	}
	if cleanupFailed {
		return fmt.Errorf("%w: tag %d deleted but some association cleanups failed", model.ErrDatabase, id)
	}
	return nil
}

// upsertTag finds a tag by case-insensitive name or creates it. Two
// concurrent upserts of the same new name can both miss the select; the
// unique index on lower(name) rejects the loser, who then re-selects the
// now-existing row.
func (r *Reconciler) upsertTag(ctx context.Context, name string) (store.Tag, error) {
	tag, err := r.queries.GetTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.Tag{}, fmt.Errorf("%w: looking up tag %q: %v", model.ErrDatabase, name, err)
	}

	tag, err = r.queries.CreateTag(ctx, store.CreateTagParams{Name: name, CreatedAt: time.Now()})
	if err == nil {
		return tag, nil
	}
	if store.IsUniqueViolation(err) {
		// Lost the creation race; the row exists now.
		tag, selErr := r.queries.GetTagByName(ctx, name)
		if selErr != nil {
			return store.Tag{}, fmt.Errorf("%w: re-selecting tag %q after conflict: %v", model.ErrDatabase, name, selErr)
		}
		return tag, nil
	}
	return store.Tag{}, fmt.Errorf("%w: creating tag %q: %v", model.ErrDatabase, name, err)
}

// dedupeNames trims names and drops empties and case-insensitive duplicates,
// preserving first-seen order and original casing.
func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
