// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import "github.com/atelierhq/atelier-go/internal/model"

// Resolve decides what a principal may see of a piece of content. Rules are
// evaluated in order, first match wins:
//
//  1. unpublished and not the owner: not found (drafts must not reveal
//     their existence, not even with a 403)
//  2. published and free: full, for everyone including anonymous
//  3. published, paid, owner: full
//  4. published, paid, subscriber: full
//  5. published, paid, anonymous: preview, authentication required
//  6. published, paid, authenticated non-subscriber: preview,
//     subscription required
//
// The principal may be nil (anonymous). Resolve is pure: callers pass in a
// freshly fetched ContentMeta and map the decision to transport semantics.
func Resolve(p *model.Principal, meta model.ContentMeta) model.Decision {
	owner := p.Owns(meta.OwnerID)

	if !meta.Published && !owner {
		return model.Decision{Access: model.AccessNotFound}
	}
	if !meta.IsPaid {
		// Published free content is open; unpublished content past rule 1
		// is the owner's own draft.
		return model.Decision{Access: model.AccessFull}
	}
	if owner {
		return model.Decision{Access: model.AccessFull}
	}
	if p != nil && p.IsSubscriber {
		return model.Decision{Access: model.AccessFull}
	}
	if p == nil {
		return model.Decision{Access: model.AccessPreview, Hint: model.HintAuthenticationRequired}
	}
	return model.Decision{Access: model.AccessPreview, Hint: model.HintSubscriptionRequired}
}
