package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Default admin member created on first run.
const (
	DefaultAdminEmail = "admin@example.com"
	DefaultAdminName  = "Administrator"
)

// Seed creates initial data in the database: a default admin member profile
// linked to a fresh identity id. The credential itself lives at the external
// auth provider; seeding only creates the local profile row.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	// Check if admin member already exists
	_, err := queries.GetMemberByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin member already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin member: %w", err)
	}

	now := time.Now()
	member, err := queries.CreateMember(ctx, CreateMemberParams{
		IdentityID:   uuid.NewString(),
		Email:        DefaultAdminEmail,
		Name:         DefaultAdminName,
		Level:        "admin",
		IsSubscriber: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin member: %w", err)
	}

	slog.Info("created default admin member",
		"id", member.ID,
		"email", member.Email,
		"identity_id", member.IdentityID,
	)

	// A published welcome article so a fresh install is not empty.
	article, err := queries.CreateArticle(ctx, CreateArticleParams{
		Slug:      "welcome",
		Title:     "Welcome",
		Body:      "# Welcome\n\nYour content backend is up and running.",
		OwnerID:   member.IdentityID,
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating welcome article: %w", err)
	}
	slog.Info("created welcome article", "slug", article.Slug)

	return nil
}
