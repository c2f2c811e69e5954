// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/media"
	"github.com/taibuivan/vidstream/internal/platform/validate"
	"github.com/taibuivan/vidstream/internal/users/identity"
	"github.com/taibuivan/vidstream/pkg/pagination"
	"github.com/taibuivan/vidstream/pkg/textnorm"
)

// # Service Layer

// Service orchestrates account updates and the profile read models.
type Service struct {
	users    identity.Store
	profiles ProfileStore
	uploader media.Uploader
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users identity.Store, profiles ProfileStore, uploader media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		uploader: uploader,
		logger:   logger,
	}
}

// # Account Details

// UpdateDetailsInput holds the editable text fields of an account.
type UpdateDetailsInput struct {
	FullName string
	Email    string
}

/*
UpdateAccountDetails sets the full name and email of the user.

Parameters:
  - ctx: context.Context
  - userID: string
  - input: UpdateDetailsInput (both fields required)

Returns:
  - *identity.PublicUser: Updated view
  - error: Validation (400), Conflict when the email is taken (409)
*/
func (service *Service) UpdateAccountDetails(ctx context.Context, userID string, input UpdateDetailsInput) (*identity.PublicUser, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := textnorm.Email(input.Email)

	validator := &validate.Validator{}
	validator.Required(identity.FieldFullName, fullName).
		Required(identity.FieldEmail, email)
	if !validator.HasErrors() {
		validator.Email(identity.FieldEmail, email)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.UpdateDetails(ctx, userID, fullName, email)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_details: %w", err)
	}

	service.logger.InfoContext(ctx, "account_details_updated", slog.String("user_id", userID))
	return user.Public(), nil
}

// # Images

// imageSlot describes one replaceable image on the account.
type imageSlot struct {
	field   string
	missing string
	current func(*identity.User) string
	save    func(ctx context.Context, id, url string) (*identity.User, error)
}

/*
UpdateAvatar uploads a new avatar and stores its URL.

Returns:
  - *identity.PublicUser: Updated view
  - error: Validation when file is nil, UploadFailed or Unavailable from the uploader
*/
func (service *Service) UpdateAvatar(ctx context.Context, userID string, file *media.LocalFile) (*identity.PublicUser, error) {
	return service.replaceImage(ctx, userID, file, imageSlot{
		field:   identity.FieldAvatar,
		missing: "Avatar file is missing",
		current: func(user *identity.User) string { return user.AvatarURL },
		save:    service.users.UpdateAvatar,
	})
}

// UpdateCoverImage uploads a new cover image and stores its URL.
func (service *Service) UpdateCoverImage(ctx context.Context, userID string, file *media.LocalFile) (*identity.PublicUser, error) {
	return service.replaceImage(ctx, userID, file, imageSlot{
		field:   identity.FieldCoverImage,
		missing: "Cover image file is missing",
		current: func(user *identity.User) string { return user.CoverImageURL },
		save:    service.users.UpdateCoverImage,
	})
}

// replaceImage uploads file, saves the URL and deletes the previous asset.
// A failed delete is logged and never fails the request.
func (service *Service) replaceImage(ctx context.Context, userID string, file *media.LocalFile, slot imageSlot) (*identity.PublicUser, error) {
	if file == nil {
		return nil, validate.RequiredError(slot.field, slot.missing)
	}

	existing, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_%s_lookup: %w", slot.field, err)
	}
	previousURL := slot.current(existing)

	url, err := service.uploader.Upload(ctx, file.Path)
	if err != nil {
		return nil, fmt.Errorf("account_service_%s_upload: %w", slot.field, err)
	}

	user, err := slot.save(ctx, userID, url)
	if err != nil {
		service.deleteAsset(ctx, url)
		return nil, fmt.Errorf("account_service_%s_save: %w", slot.field, err)
	}

	if previousURL != "" && previousURL != url {
		service.deleteAsset(ctx, previousURL)
	}

	service.logger.InfoContext(ctx, "account_image_updated",
		slog.String("user_id", userID),
		slog.String("field", slot.field),
	)
	return user.Public(), nil
}

func (service *Service) deleteAsset(ctx context.Context, url string) {
	if err := service.uploader.Delete(ctx, url); err != nil {
		service.logger.WarnContext(ctx, "media_delete_failed", slog.String("url", url), slog.Any("error", err))
	}
}

// # Read Models

/*
GetChannelProfile returns a channel page with its subscription counts.

Parameters:
  - ctx: context.Context
  - username: string (any case)
  - viewerID: string (empty for anonymous viewers)

Returns:
  - *ChannelProfile: Aggregated profile
  - error: Validation when username is blank, NotFound when absent
*/
func (service *Service) GetChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error) {
	username = textnorm.Username(username)
	if username == "" {
		return nil, validate.RequiredError(identity.FieldUsername, "username is missing")
	}

	profile, err := service.profiles.FindChannelProfile(ctx, username, viewerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Channel").WithCause(err)
		}
		return nil, fmt.Errorf("account_service_channel_profile: %w", err)
	}

	return profile, nil
}

/*
GetWatchHistory returns one page of the user's watch history.

Returns:
  - []WatchedVideo: Entries with nested owner, most recent first
  - pagination.Meta: Page metadata
  - error: Store failures
*/
func (service *Service) GetWatchHistory(ctx context.Context, userID string, page pagination.Params) ([]WatchedVideo, pagination.Meta, error) {
	videos, total, err := service.profiles.ListWatchHistory(ctx, userID, page)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_watch_history: %w", err)
	}

	if videos == nil {
		videos = []WatchedVideo{}
	}
	return videos, pagination.NewMeta(page.Page, page.Limit, total), nil
}
