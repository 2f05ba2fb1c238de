// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package access implements the permission policy gate and the content
// visibility resolver. Both are pure functions over a Principal and, for
// visibility, an already-fetched ContentMeta; neither touches the store.
package access

import (
	"fmt"

	"github.com/atelierhq/atelier-go/internal/model"
)

// Require gates an operation on a minimum permission level. Roles are
// hierarchical, so a single ordinal comparison implements every gate:
// requiring LevelAuthor admits both authors and admins. The principal is
// returned unchanged on success.
func Require(p *model.Principal, minimum model.PermissionLevel) (*model.Principal, error) {
	if p == nil {
		return nil, model.ErrUnauthenticated
	}
	if p.Level < minimum {
		return nil, fmt.Errorf("%w: have %s, need %s", model.ErrInsufficientPermission, p.Level, minimum)
	}
	return p, nil
}
