// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware holds the HTTP middlewares: principal resolution,
// permission gates and rate limiting. The resolved principal travels in the
// request context and is threaded explicitly into every layer below; nothing
// here is a process-wide singleton.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/atelierhq/atelier-go/internal/access"
	"github.com/atelierhq/atelier-go/internal/auth"
	"github.com/atelierhq/atelier-go/internal/model"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the principal resolved for this request, or nil for
// anonymous requests.
func PrincipalFrom(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey).(*model.Principal)
	return p
}

// bearerToken extracts the bearer token from the Authorization header, or ""
// when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// Principal resolves the request's bearer token strictly and stores the
// result in the context. Requests with no token pass through as anonymous;
// requests with a bad token are rejected. Use on routes that must not serve
// degraded results to holders of stale tokens.
func Principal(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return principalMiddleware(resolver, false)
}

// PrincipalOptional resolves the request's bearer token leniently: invalid
// tokens and missing profiles degrade to anonymous instead of rejecting. Use
// on public routes where a stale token should not break browsing.
func PrincipalOptional(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return principalMiddleware(resolver, true)
}

func principalMiddleware(resolver *auth.Resolver, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			var p *model.Principal
			var err error
			if optional {
				p, err = resolver.ResolveOptional(r.Context(), token)
			} else {
				p, err = resolver.Resolve(r.Context(), token)
			}
			if err != nil {
				if errors.Is(err, model.ErrUnauthenticated) || errors.Is(err, model.ErrProfileNotFound) {
					logDenial(r, "credential rejected", err)
					writeError(w, http.StatusUnauthorized, "invalid credentials")
					return
				}
				if errors.Is(err, model.ErrUpstream) {
					slog.Error("auth provider unavailable", "error", err)
					writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
					return
				}
				slog.Error("principal resolution failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLevel gates a route on a minimum permission level. It must run
// after one of the principal middlewares.
func RequireLevel(minimum model.PermissionLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if _, err := access.Require(p, minimum); err != nil {
				if errors.Is(err, model.ErrUnauthenticated) {
					logDenial(r, "authentication required", err)
					writeError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				logDenial(r, "insufficient permission", err)
				writeError(w, http.StatusForbidden, "insufficient permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// logDenial records an access denial with the parsed client user agent so
// the event log distinguishes browsers from scripted clients.
func logDenial(r *http.Request, msg string, err error) {
	ua := useragent.Parse(r.UserAgent())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"remote", r.RemoteAddr,
		"browser", ua.Name,
		"os", ua.OS,
		"bot", ua.Bot,
		"error", err,
		"category", "auth",
	}
	if p := PrincipalFrom(r.Context()); p != nil {
		attrs = append(attrs, "identity_id", p.IdentityID)
	}
	slog.Warn(msg, attrs...)
}

// writeError emits a minimal JSON error body. Handlers use the richer api
// envelope; middlewares keep it flat.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
