// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth resolves opaque bearer credentials into Principals. Token
// issuance and password handling live at the external auth provider; this
// package only verifies tokens against it and loads the local member
// profile.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atelierhq/atelier-go/internal/model"
)

// Verifier checks a bearer token with the credential issuer and returns the
// identity id it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HTTPVerifier verifies tokens against the auth provider's user-info
// endpoint. Any non-200 response means the token is invalid; a transport
// failure is an upstream outage, not a verdict on the token.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given user-info endpoint URL.
func NewHTTPVerifier(endpoint string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify implements Verifier.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling auth provider: %v", model.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: auth provider returned %d", model.ErrUnauthenticated, resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding auth provider response: %v", model.ErrUpstream, err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("%w: auth provider returned no identity", model.ErrUnauthenticated)
	}
	return body.ID, nil
}

// StaticVerifier maps fixed tokens to identity ids. Used in tests and local
// development.
type StaticVerifier map[string]string

// Verify implements Verifier.
func (v StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	id, ok := v[token]
	if !ok {
		return "", fmt.Errorf("%w: unknown token", model.ErrUnauthenticated)
	}
	return id, nil
}
