// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies account passwords with bcrypt.
//
// # Security
//
// bcrypt salts every digest and compares in constant time, so a mismatch
// never reveals which byte diverged.
type Hasher struct {
	cost int
}

// NewHasher returns a [Hasher] using the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to [bcrypt.DefaultCost].
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes a plain-text password.
func (hasher *Hasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether plainTextPassword matches existingHash.
// A malformed digest is treated as a mismatch.
func (hasher *Hasher) Verify(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
