// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for the platform.

It wraps google/uuid to generate Version 7 values for user primary keys,
JWT "jti" claims, request correlation IDs and media object keys.

UUIDv7 values sort by creation time (millisecond precision), which keeps
PostgreSQL B-tree indexes compact.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// # Validation

// IsValid reports whether s is a canonical UUID string of any version.
func IsValid(s string) bool {
	return uuid.Validate(s) == nil && len(s) == 36
}
