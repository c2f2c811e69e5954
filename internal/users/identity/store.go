// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "context"

// # Credential Store

// Store defines the data access contract for user accounts.
//
// Errors are [apperr.AppError] values: NOT_FOUND for a missing user, CONFLICT
// for a username/email unique index violation, SERVICE_UNAVAILABLE when the
// database does not answer in time.
type Store interface {

	/*
		Create persists a new account.

		Returns:
		  - error: apperr.Conflict when the username or email is already taken
	*/
	Create(ctx context.Context, user *User) error

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByUsername returns the account with the given canonical username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		FindByUsernameOrEmail returns the first account matching either value.
		An empty argument is not matched.
	*/
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)

	// SetRefreshTokenHash overwrites the stored refresh token digest.
	SetRefreshTokenHash(ctx context.Context, id, tokenHash string) error

	/*
		RotateRefreshTokenHash replaces the digest only if it still equals
		expectedHash.

		Returns:
		  - bool: false when the stored digest changed or was cleared
		  - error: Store failures
	*/
	RotateRefreshTokenHash(ctx context.Context, id, expectedHash, newHash string) (bool, error)

	// ClearRefreshToken removes the stored digest. Clearing an empty digest succeeds.
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdatePassword replaces the password hash, optionally clearing the session in the same write.
	UpdatePassword(ctx context.Context, id, passwordHash string, clearSession bool) error

	// UpdateDetails sets full name and email and returns the updated account.
	UpdateDetails(ctx context.Context, id, fullName, email string) (*User, error)

	// UpdateAvatar sets the avatar URL and returns the updated account.
	UpdateAvatar(ctx context.Context, id, url string) (*User, error)

	// UpdateCoverImage sets the cover image URL and returns the updated account.
	UpdateCoverImage(ctx context.Context, id, url string) (*User, error)
}
