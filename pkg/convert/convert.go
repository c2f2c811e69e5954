// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for query parameters.

A malformed value falls back to a caller-supplied default instead of
producing an error. Use [strconv] directly when a malformed value must be
rejected.
*/
package convert

import (
	"strconv"
	"strings"
)

// IntOr parses raw as a base-10 integer, returning fallback when raw is blank
// or malformed.
func IntOr(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

// ClampInt returns value when it lies in [low, high] and fallback otherwise.
func ClampInt(value, low, high, fallback int) int {
	if value < low || value > high {
		return fallback
	}
	return value
}
