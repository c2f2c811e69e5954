// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/media"
	requestutil "github.com/taibuivan/vidstream/internal/platform/request"
	"github.com/taibuivan/vidstream/internal/platform/respond"
	"github.com/taibuivan/vidstream/internal/platform/validate"
	"github.com/taibuivan/vidstream/internal/users/identity"
	"github.com/taibuivan/vidstream/pkg/pagination"
)

// # Definitions & Constructors

// HandlerConfig holds the multipart settings of the image endpoints.
type HandlerConfig struct {
	UploadDir      string
	MaxUploadBytes int64
}

// Handler implements the account HTTP endpoints.
type Handler struct {
	accountService *Service
	config         HandlerConfig
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, config HandlerConfig) *Handler {
	return &Handler{accountService: service, config: config}
}

/*
Mount registers the account routes on router.

# Endpoints
  - GET   /current-user   : guarded
  - PATCH /update-account : guarded
  - PATCH /avatar         : guarded, multipart
  - PATCH /cover-image    : guarded, multipart
  - GET   /history        : guarded, paginated
  - GET   /c/{username}   : optional auth
*/
func (handler *Handler) Mount(router chi.Router, requireAuth, optionalAuth func(http.Handler) http.Handler) {
	router.Group(func(protected chi.Router) {
		protected.Use(requireAuth)
		protected.Get("/current-user", handler.currentUser)
		protected.Patch("/update-account", handler.updateAccount)
		protected.Patch("/avatar", handler.updateAvatar)
		protected.Patch("/cover-image", handler.updateCoverImage)
		protected.Get("/history", handler.watchHistory)
	})

	router.With(optionalAuth).Get("/c/{username}", handler.channelProfile)
}

// # Request Payloads

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

/*
CurrentUser returns the user resolved by the auth guard.

GET /api/v1/users/current-user

Response:
  - 200: PublicUser
  - 401: Guard failure
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "User fetched successfully")
}

/*
UpdateAccount changes the full name and email.

PATCH /api/v1/users/update-account

Response:
  - 200: PublicUser
  - 400: Missing field
  - 409: Email taken
*/
func (handler *Handler) updateAccount(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updated, err := handler.accountService.UpdateAccountDetails(request.Context(), user.ID, UpdateDetailsInput{
		FullName: input.FullName,
		Email:    input.Email,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart "avatar").
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.replaceImage(writer, request, identity.FieldAvatar, handler.accountService.UpdateAvatar, "Avatar image updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart "coverImage").
func (handler *Handler) updateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.replaceImage(writer, request, identity.FieldCoverImage, handler.accountService.UpdateCoverImage, "Cover image updated successfully")
}

func (handler *Handler) replaceImage(
	writer http.ResponseWriter,
	request *http.Request,
	field string,
	update func(ctx context.Context, userID string, file *media.LocalFile) (*identity.PublicUser, error),
	message string,
) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := requestutil.ParseMultipart(writer, request, handler.config.MaxUploadBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer requestutil.CleanupMultipart(request)

	file, err := requestutil.SaveFormFile(request, field, handler.config.UploadDir)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	defer requestutil.RemoveFiles(file)

	updated, err := update(request.Context(), user.ID, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated, message)
}

/*
ChannelProfile returns a channel page.

GET /api/v1/users/c/{username}

Description: Authentication is optional; a signed-in viewer also learns
whether they subscribe to the channel.

Response:
  - 200: ChannelProfile
  - 404: Channel does not exist
*/
func (handler *Handler) channelProfile(writer http.ResponseWriter, request *http.Request) {
	viewerID := ""
	if viewer := requestutil.User(request); viewer != nil {
		viewerID = viewer.ID
	}

	profile, err := handler.accountService.GetChannelProfile(request.Context(), requestutil.Param(request, "username"), viewerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile, "User channel fetched successfully")
}

/*
WatchHistory returns the signed-in user's watch history.

GET /api/v1/users/history?page=1&limit=20

Response:
  - 200: []WatchedVideo with pagination meta
*/
func (handler *Handler) watchHistory(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	videos, meta, err := handler.accountService.GetWatchHistory(request.Context(), user.ID, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, videos, meta, "Watch history fetched successfully")
}
