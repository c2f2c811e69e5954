// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements registration and the session lifecycle of a user.

The session is a pair of tokens: a short-lived access token checked on every
protected request, and a long-lived refresh token whose SHA-256 digest is
stored on the account. Only the most recently issued refresh token is valid.

Architecture:

  - Service: Register, Login, Refresh, Logout and ChangePassword.
  - Guard: resolves an access token to a user for the auth middleware.
  - Denylist: Redis set of logged-out access token IDs.
  - Handler: HTTP delivery, cookies and multipart decoding.

The Service is the only writer of the stored refresh token digest.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/media"
	"github.com/taibuivan/vidstream/internal/platform/sec"
	"github.com/taibuivan/vidstream/internal/platform/validate"
	"github.com/taibuivan/vidstream/internal/users/identity"
	"github.com/taibuivan/vidstream/pkg/textnorm"
	"github.com/taibuivan/vidstream/pkg/uuid"
)

// # Contracts

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// TokenIssuer mints and verifies the session tokens.
type TokenIssuer interface {
	IssueAccess(subject sec.Identity) (string, error)
	IssueRefresh(userID string) (string, error)
	VerifyAccess(token string) (*sec.AccessClaims, error)
	VerifyRefresh(token string) (*sec.RefreshClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Denylist records access tokens that must stop working before they expire.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Options tunes service behaviour that is a product decision rather than a
// dependency.
type Options struct {
	// RevokeSessionOnPasswordChange clears the refresh token in the same
	// write that replaces the password hash.
	RevokeSessionOnPasswordChange bool
}

// Service implements the user session use cases.
type Service struct {
	store    identity.Store
	hasher   PasswordHasher
	tokens   TokenIssuer
	uploader media.Uploader
	denylist Denylist
	options  Options
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	store identity.Store,
	hasher PasswordHasher,
	tokens TokenIssuer,
	uploader media.Uploader,
	denylist Denylist,
	options Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		denylist: denylist,
		options:  options,
		logger:   logger,
	}
}

// Session is the result of a successful Login or Refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *identity.PublicUser
}

// # Registration Flow

// RegisterInput holds the data required to create an account.
//
// Avatar is required and CoverImage is optional. Both point at spooled
// temporary files that the media uploader removes once it has read them.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	Avatar     *media.LocalFile
	CoverImage *media.LocalFile
}

// normalize trims every text field and canonicalises username and email.
func (input *RegisterInput) normalize() {
	input.Username = textnorm.Username(input.Username)
	input.Email = textnorm.Email(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
}

// validate runs every boundary rule at once so the client sees all problems.
func (input *RegisterInput) validate() error {
	validator := &validate.Validator{}
	validator.Required(identity.FieldUsername, input.Username).
		Required(identity.FieldEmail, input.Email).
		Required(identity.FieldPassword, input.Password).
		Required(identity.FieldFullName, input.FullName).
		Custom(identity.FieldAvatar, input.Avatar == nil, msgAvatarRequired)

	if validator.HasErrors() {
		return validator.Err()
	}

	validator.Username(identity.FieldUsername, input.Username).
		MaxLen(identity.FieldUsername, input.Username, UsernameMaxLength).
		Email(identity.FieldEmail, input.Email).
		MaxLen(identity.FieldEmail, input.Email, EmailMaxLength).
		MaxBytes(identity.FieldPassword, input.Password, PasswordMaxBytes).
		MaxLen(identity.FieldFullName, input.FullName, FullNameMaxLength)

	return validator.Err()
}

/*
Register validates the input, uploads the images and creates the account.

Description: The lookup on username or email gives a friendly early Conflict;
the unique indexes stay the authoritative check, so a concurrent duplicate
that passes the lookup still fails with Conflict at insert time.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *identity.PublicUser: The created account without secrets
  - error: Validation, Conflict, UploadFailed, Unavailable or Internal
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*identity.PublicUser, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	// Early uniqueness check
	_, err := service.store.FindByUsernameOrEmail(ctx, input.Username, input.Email)
	if err == nil {
		return nil, apperr.Conflict(msgUserExists)
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup: %w", err)
	}

	avatarURL, err := service.uploader.Upload(ctx, input.Avatar.Path)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_avatar: %w", err)
	}

	// A failed cover image degrades to an empty URL.
	coverImageURL := ""
	if input.CoverImage != nil {
		coverImageURL, err = service.uploader.Upload(ctx, input.CoverImage.Path)
		if err != nil {
			service.logger.WarnContext(ctx, "cover_image_upload_skipped", slog.Any("error", err))
			coverImageURL = ""
		}
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		service.discardUploads(ctx, avatarURL, coverImageURL)
		return nil, apperr.Internal(err)
	}

	user := &identity.User{
		ID:            uuid.New(),
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  passwordHash,
	}

	if err := service.store.Create(ctx, user); err != nil {
		service.discardUploads(ctx, avatarURL, coverImageURL)
		return nil, fmt.Errorf("auth_service_register_create: %w", err)
	}

	// Confirm the record is readable before reporting success.
	created, err := service.store.FindByID(ctx, user.ID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Internal(fmt.Errorf("auth_service_register_confirm: %w", err))
		}
		return nil, fmt.Errorf("auth_service_register_confirm: %w", err)
	}

	service.logger.InfoContext(ctx, "user_registered",
		slog.String("user_id", created.ID),
		slog.String("username", created.Username),
	)

	return created.Public(), nil
}

// discardUploads deletes assets of a registration that did not complete.
func (service *Service) discardUploads(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := service.uploader.Delete(ctx, url); err != nil {
			service.logger.WarnContext(ctx, "orphaned_upload", slog.String("url", url), slog.Any("error", err))
		}
	}
}

// # Session Lifecycle

// LoginInput holds credentials for a login attempt. Either Username or
// Email identifies the account.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

/*
Login verifies credentials and starts a new session.

Description: Overwrites any previous refresh token of the user. A concurrent
login or refresh for the same user therefore invalidates the other's fresh
refresh token; one session per user is the expected behaviour.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *Session: Token pair and public user view
  - error: Validation (400), NotFound (404), InvalidCredentials (401)
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	username := textnorm.Username(input.Username)
	email := textnorm.Email(input.Email)

	if username == "" && email == "" {
		return nil, validate.RequiredError(identity.FieldUsername, msgUsernameOrEmail)
	}
	if input.Password == "" {
		return nil, validate.RequiredError(identity.FieldPassword, "This field is required")
	}

	user, err := service.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_lookup: %w", err)
	}

	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials(msgInvalidCredentials)
	}

	accessToken, refreshToken, err := service.issuePair(user)
	if err != nil {
		return nil, err
	}

	// Rotation point: the new digest replaces whatever session existed.
	if err := service.store.SetRefreshTokenHash(ctx, user.ID, sec.HashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("auth_service_login_persist: %w", err)
	}

	service.logger.InfoContext(ctx, "session_started", slog.String("user_id", user.ID))

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

/*
Refresh exchanges the current refresh token for a new token pair.

Description: The presented token must be the one whose digest is stored on
the account. The swap to the new digest is a compare-and-swap, so of two
concurrent refreshes with the same token exactly one succeeds.

Parameters:
  - ctx: context.Context
  - refreshToken: string

Returns:
  - *Session: New token pair
  - error: Unauthorized for a missing, invalid, expired or superseded token
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized(msgUnauthorized)
	}

	claims, err := service.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized(msgInvalidRefreshToken).WithCause(err)
	}

	user, err := service.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(msgInvalidRefreshToken).WithCause(err)
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup: %w", err)
	}

	// Reuse defense: a logged-out session has an empty digest and never matches.
	if !sec.TokenMatches(refreshToken, user.RefreshTokenHash) {
		return nil, apperr.Unauthorized(msgRefreshTokenReused)
	}

	accessToken, newRefreshToken, err := service.issuePair(user)
	if err != nil {
		return nil, err
	}

	rotated, err := service.store.RotateRefreshTokenHash(ctx, user.ID, user.RefreshTokenHash, sec.HashToken(newRefreshToken))
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_persist: %w", err)
	}
	if !rotated {
		return nil, apperr.Unauthorized(msgRefreshTokenReused)
	}

	service.logger.InfoContext(ctx, "session_rotated", slog.String("user_id", user.ID))

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         user.Public(),
	}, nil
}

/*
Logout ends the session of the user.

Description: Clears the stored refresh token and denylists the presenting
access token until its expiry. Calling it again succeeds and leaves the
session cleared.

Parameters:
  - ctx: context.Context
  - userID: string
  - claims: *sec.AccessClaims (the access token used for this request, may be nil)

Returns:
  - error: Store failures
*/
func (service *Service) Logout(ctx context.Context, userID string, claims *sec.AccessClaims) error {
	if err := service.store.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("auth_service_logout: %w", err)
	}

	// The refresh token is already gone; a denylist failure only lets the
	// access token live until its own expiry.
	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := service.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			service.logger.WarnContext(ctx, "access_token_revoke_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}

	service.logger.InfoContext(ctx, "session_cleared", slog.String("user_id", userID))
	return nil
}

// ChangePasswordInput holds the old and new password.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

/*
ChangePassword replaces the password hash after verifying the old password.

Description: The refresh token is left untouched unless
Options.RevokeSessionOnPasswordChange is set, in which case the same write
clears it.

Parameters:
  - ctx: context.Context
  - userID: string
  - input: ChangePasswordInput

Returns:
  - error: Validation or InvalidCredentials (both 400), store failures
*/
func (service *Service) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	validator := &validate.Validator{}
	validator.Required(identity.FieldOldPassword, input.OldPassword).
		Required(identity.FieldNewPassword, input.NewPassword).
		MaxBytes(identity.FieldNewPassword, input.NewPassword, PasswordMaxBytes)

	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.store.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_lookup: %w", err)
	}

	if !service.hasher.Verify(input.OldPassword, user.PasswordHash) {
		return apperr.InvalidCredentials(msgInvalidOldPassword).WithStatus(http.StatusBadRequest)
	}

	passwordHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	revoke := service.options.RevokeSessionOnPasswordChange
	if err := service.store.UpdatePassword(ctx, user.ID, passwordHash, revoke); err != nil {
		return fmt.Errorf("auth_service_change_password_persist: %w", err)
	}

	service.logger.InfoContext(ctx, "password_changed",
		slog.String("user_id", user.ID),
		slog.Bool("session_revoked", revoke),
	)
	return nil
}

// # Helpers

func (service *Service) issuePair(user *identity.User) (string, string, error) {
	accessToken, err := service.tokens.IssueAccess(sec.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return "", "", apperr.Internal(fmt.Errorf("auth_service_issue_access: %w", err))
	}

	refreshToken, err := service.tokens.IssueRefresh(user.ID)
	if err != nil {
		return "", "", apperr.Internal(fmt.Errorf("auth_service_issue_refresh: %w", err))
	}

	return accessToken, refreshToken, nil
}
