// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Input Constraints

const (
	// UsernameMaxLength caps the canonical username in characters.
	UsernameMaxLength = 30

	// FullNameMaxLength caps the display name in characters.
	FullNameMaxLength = 100

	// EmailMaxLength follows the RFC 5321 path limit.
	EmailMaxLength = 254

	// PasswordMaxBytes is the bcrypt input limit. Longer passwords are
	// rejected at the boundary instead of failing inside the hasher.
	PasswordMaxBytes = 72
)

// # Client Messages

const (
	msgUserExists          = "User with email or username already exists"
	msgAvatarRequired      = "Avatar file is required"
	msgUsernameOrEmail     = "username or email is required"
	msgInvalidCredentials  = "Invalid user credentials"
	msgInvalidOldPassword  = "Invalid old password"
	msgUnauthorized        = "Unauthorized request"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgRefreshTokenReused  = "Refresh token is expired or used"
	msgInvalidAccessToken  = "Invalid access token"
	msgAccessTokenRevoked  = "Access token has been revoked"
)
