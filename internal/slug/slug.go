// Copyright (c) 2025-2026 Atelier Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package slug provides URL slug normalization and collision-free slug
// allocation scoped to a namespace.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when normalization leaves nothing usable.
const Fallback = "untitled"

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// whitespaceRuns matches runs of whitespace
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Slugify converts a string to a URL-friendly slug.
// It converts to lowercase, removes accents, replaces whitespace runs with
// hyphens, and removes all non-alphanumeric characters except hyphens.
// An input that normalizes to nothing yields Fallback.
func Slugify(s string) string {
	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, strings.TrimSpace(s))

	// Convert to lowercase
	result = strings.ToLower(result)

	// Replace whitespace runs with hyphens
	result = whitespaceRuns.ReplaceAllString(result, "-")

	// Remove all non-alphanumeric characters except hyphens
	result = slugRegex.ReplaceAllString(result, "")

	// Replace multiple hyphens with single hyphen
	result = multipleHyphens.ReplaceAllString(result, "-")

	// Trim hyphens from start and end
	result = strings.Trim(result, "-")

	if result == "" {
		return Fallback
	}
	return result
}

// IsValid checks if a string is a valid slug format.
func IsValid(s string) bool {
	if s == "" {
		return false
	}

	// Only lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Must not start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// No consecutive hyphens
	if strings.Contains(s, "--") {
		return false
	}

	return true
}
