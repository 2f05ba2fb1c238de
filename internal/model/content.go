// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// ContentMeta is the minimal projection of any content entity needed for a
// visibility decision. It is read fresh from the store for every decision
// and never cached across requests.
type ContentMeta struct {
	OwnerID   string
	Published bool
	IsPaid    bool
}

// Access is the outcome class of a visibility decision.
type Access int

// Visibility outcomes.
const (
	// AccessNotFound means the content must be treated as absent. Unpublished
	// drafts are invisible to everyone but the owner and must not reveal
	// their existence through a 403.
	AccessNotFound Access = iota
	// AccessPreview grants a reduced, non-sensitive projection only.
	AccessPreview
	// AccessFull grants the complete content.
	AccessFull
)

// String returns the lowercase name of the access class.
func (a Access) String() string {
	switch a {
	case AccessFull:
		return "full"
	case AccessPreview:
		return "preview"
	default:
		return "not_found"
	}
}

// Hints attached to a preview decision so callers can map the denial to the
// right HTTP status on full-detail endpoints.
const (
	HintAuthenticationRequired = "authentication_required"
	HintSubscriptionRequired   = "subscription_required"
)

// Decision is the result of resolving a principal against content metadata.
type Decision struct {
	Access Access
	// Hint is set only for AccessPreview and names what the caller lacks.
	Hint string
}
