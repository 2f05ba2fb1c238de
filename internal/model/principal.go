// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain value objects shared by the access,
// auth, slug and taxonomy layers: principals, permission levels, content
// metadata, visibility decisions and the typed error taxonomy.
package model

// PermissionLevel is a totally ordered member role. Gates always compare
// with >= so a higher role satisfies every lower requirement.
type PermissionLevel int

// Permission levels, lowest to highest.
const (
	LevelGuest  PermissionLevel = 1
	LevelAuthor PermissionLevel = 2
	LevelAdmin  PermissionLevel = 3
)

// String returns the canonical name stored in the members table.
func (l PermissionLevel) String() string {
	switch l {
	case LevelGuest:
		return "guest"
	case LevelAuthor:
		return "author"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseLevel converts a stored role name to a PermissionLevel.
// Unknown names map to LevelGuest so a corrupted row can never
// grant elevated access.
func ParseLevel(s string) PermissionLevel {
	switch s {
	case "admin":
		return LevelAdmin
	case "author":
		return LevelAuthor
	default:
		return LevelGuest
	}
}

// Principal is the resolved identity of the caller for one request.
// It is created from a verified credential, threaded through function
// arguments, and discarded at request end. It is never persisted.
type Principal struct {
	IdentityID   string
	Level        PermissionLevel
	IsSubscriber bool
}

// Owns reports whether the principal owns content with the given owner id.
func (p *Principal) Owns(ownerID string) bool {
	return p != nil && ownerID != "" && p.IdentityID == ownerID
}
