// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "errors"

// Typed error taxonomy. Every layer discriminates with errors.Is against
// these sentinels; nothing matches on error message text.
var (
	// ErrUnauthenticated means no credential was presented where one was
	// required, or the presented credential failed verification.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInsufficientPermission means the principal's level is below the
	// minimum required by the gate.
	ErrInsufficientPermission = errors.New("insufficient permission")

	// ErrProfileNotFound means the credential verified upstream but no local
	// member profile exists for the identity. Distinct from
	// ErrUnauthenticated: the token itself was valid.
	ErrProfileNotFound = errors.New("member profile not found")

	// ErrNotFound means the content is absent, or access is equivalent to
	// absence under the visibility rules.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the content exists but access is denied.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a slug or tag-name uniqueness violation survived the
	// allocator's probe-and-retry.
	ErrConflict = errors.New("conflict")

	// ErrValidation means the request input is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrDatabase means the store failed; not recoverable for this request.
	ErrDatabase = errors.New("database error")

	// ErrUpstream means the auth provider could not be reached or returned an
	// unusable response. Distinct from ErrUnauthenticated: the credential was
	// never evaluated, so the caller should retry, not re-authenticate.
	ErrUpstream = errors.New("upstream unavailable")
)
