package store

import (
	"context"
	"time"
)

// Member is a local profile row linked to an identity at the external auth
// provider by identity_id.
type Member struct {
	ID           int64     `json:"id"`
	IdentityID   string    `json:"identity_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Level        string    `json:"level"`
	IsSubscriber bool      `json:"is_subscriber"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const createMember = `
INSERT INTO members (identity_id, email, name, level, is_subscriber, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, identity_id, email, name, level, is_subscriber, created_at, updated_at
`

// CreateMemberParams holds the parameters for CreateMember.
type CreateMemberParams struct {
	IdentityID   string
	Email        string
	Name         string
	Level        string
	IsSubscriber bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateMember inserts a new member profile.
func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRowContext(ctx, createMember,
		arg.IdentityID, arg.Email, arg.Name, arg.Level, arg.IsSubscriber, arg.CreatedAt, arg.UpdatedAt)
	var m Member
	err := row.Scan(&m.ID, &m.IdentityID, &m.Email, &m.Name, &m.Level, &m.IsSubscriber, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const getMemberAccessByIdentityID = `
SELECT identity_id, level, is_subscriber FROM members WHERE identity_id = ?
`

// MemberAccess is the minimal projection used to build a Principal.
// The resolver loads exactly these three columns and nothing more.
type MemberAccess struct {
	IdentityID   string
	Level        string
	IsSubscriber bool
}

// GetMemberAccessByIdentityID loads the permission projection for an identity.
func (q *Queries) GetMemberAccessByIdentityID(ctx context.Context, identityID string) (MemberAccess, error) {
	row := q.db.QueryRowContext(ctx, getMemberAccessByIdentityID, identityID)
	var a MemberAccess
	err := row.Scan(&a.IdentityID, &a.Level, &a.IsSubscriber)
	return a, err
}

const getMemberByIdentityID = `
SELECT id, identity_id, email, name, level, is_subscriber, created_at, updated_at
FROM members WHERE identity_id = ?
`

// GetMemberByIdentityID loads a full member profile by identity id.
func (q *Queries) GetMemberByIdentityID(ctx context.Context, identityID string) (Member, error) {
	row := q.db.QueryRowContext(ctx, getMemberByIdentityID, identityID)
	var m Member
	err := row.Scan(&m.ID, &m.IdentityID, &m.Email, &m.Name, &m.Level, &m.IsSubscriber, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const getMemberByEmail = `
SELECT id, identity_id, email, name, level, is_subscriber, created_at, updated_at
FROM members WHERE email = ?
`

// GetMemberByEmail loads a full member profile by email.
func (q *Queries) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	row := q.db.QueryRowContext(ctx, getMemberByEmail, email)
	var m Member
	err := row.Scan(&m.ID, &m.IdentityID, &m.Email, &m.Name, &m.Level, &m.IsSubscriber, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const updateMemberSubscription = `
UPDATE members SET is_subscriber = ?, updated_at = ? WHERE identity_id = ?
`

// UpdateMemberSubscriptionParams holds the parameters for UpdateMemberSubscription.
type UpdateMemberSubscriptionParams struct {
	IsSubscriber bool
	UpdatedAt    time.Time
	IdentityID   string
}

// UpdateMemberSubscription flips the read-only subscription flag; called by
// the billing webhook collaborator, never by this layer's own logic.
func (q *Queries) UpdateMemberSubscription(ctx context.Context, arg UpdateMemberSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, updateMemberSubscription, arg.IsSubscriber, arg.UpdatedAt, arg.IdentityID)
	return err
}
