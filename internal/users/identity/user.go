// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity defines the user account entity and its credential store.

It is the leaf of the users domain: the auth service, the account service and
the auth guard all depend on it, and it depends on none of them.

# Security

[User] carries the password hash and the refresh token digest and is never
written to a response. Handlers only ever serialize [PublicUser].
*/
package identity

import "time"

// # Domain Entities

// User represents a registered channel owner on the platform.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string

	// PasswordHash is the bcrypt digest of the password.
	PasswordHash string `json:"-"`

	// RefreshTokenHash is the SHA-256 digest of the single refresh token
	// currently valid for this user. Empty after logout.
	RefreshTokenHash string `json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the response-safe projection of a [User].
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public returns the response-safe view of the user.
func (user *User) Public() *PublicUser {
	return &PublicUser{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// # Field Identifiers

// Request field names shared by validation errors and form decoding.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFullName     = "fullName"
	FieldAvatar       = "avatar"
	FieldCoverImage   = "coverImage"
	FieldOldPassword  = "oldPassword"
	FieldNewPassword  = "newPassword"
	FieldRefreshToken = "refreshToken"
)
