// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package textnorm canonicalises user-supplied identifiers.
//
// # Usage
//
// Usernames are unique case-insensitively. Canonicalising them before they
// reach the store keeps "Alice", "ALICE" and the full-width "Ａｌｉｃｅ" from
// registering as three different channels.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// A cases.Caser is not safe for concurrent use, so one is built per call.
var lowerOptions = []cases.Option{cases.Compact}

// Username returns the canonical form of a username.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Normalizes to NFKC (folds compatibility forms: full-width → ASCII).
// 3. Converts to lowercase using language-neutral rules.
func Username(s string) string {
	result := strings.TrimSpace(s)
	result = norm.NFKC.String(result)
	return cases.Lower(language.Und, lowerOptions...).String(result)
}

// Email returns the canonical form of an email address: trimmed and lowercased.
func Email(s string) string {
	return cases.Lower(language.Und, lowerOptions...).String(strings.TrimSpace(s))
}
