// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts stored markdown bodies to sanitized HTML and
// builds the reduced excerpts used by preview projections.
package render

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ExcerptLength is the maximum rune length of a preview excerpt.
const ExcerptLength = 280

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()
)

// HTML renders markdown to sanitized HTML. Sanitization runs on the output
// so raw HTML embedded in the markdown cannot escape the policy.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// Excerpt returns a plain-text excerpt of the markdown body for preview
// projections, truncated on a rune boundary.
func Excerpt(markdown string) string {
	plain := policy.Sanitize(markdown)
	// Strip the markdown's own punctuation noise for headings and emphasis.
	plain = strings.NewReplacer("#", "", "*", "", "_", "", "`", "").Replace(plain)
	plain = strings.Join(strings.Fields(plain), " ")

	if utf8.RuneCountInString(plain) <= ExcerptLength {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:ExcerptLength])) + "…"
}
