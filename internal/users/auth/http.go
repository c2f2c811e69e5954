// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidstream/internal/platform/request"
	"github.com/taibuivan/vidstream/internal/platform/respond"
	"github.com/taibuivan/vidstream/internal/platform/validate"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

// # Definitions & Constructors

// HandlerConfig holds the transport settings of the auth endpoints.
type HandlerConfig struct {
	// CookieSecure is the single "Secure" flag for every auth cookie.
	CookieSecure bool

	// UploadDir receives spooled multipart files.
	UploadDir string

	// MaxUploadBytes caps the multipart registration body.
	MaxUploadBytes int64
}

// Handler implements the registration and session HTTP endpoints.
type Handler struct {
	authService *Service
	config      HandlerConfig
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, config HandlerConfig) *Handler {
	return &Handler{authService: service, config: config}
}

/*
Mount registers the auth routes on router.

# Endpoints
  - POST /register        : multipart account creation (rate limited)
  - POST /login           : token pair + cookies (rate limited)
  - POST /refresh-token   : rotates the token pair (rate limited)
  - POST /logout          : clears the session (guarded)
  - POST /change-password : replaces the password (guarded)
*/
func (handler *Handler) Mount(router chi.Router, requireAuth, rateLimit func(http.Handler) http.Handler) {
	router.Group(func(public chi.Router) {
		public.Use(rateLimit)
		public.Post("/register", handler.register)
		public.Post("/login", handler.login)
		public.Post("/refresh-token", handler.refresh)
	})

	router.Group(func(protected chi.Router) {
		protected.Use(requireAuth)
		protected.Post("/logout", handler.logout)
		protected.Post("/change-password", handler.changePassword)
	})
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// # Response Payloads

type sessionResponse struct {
	User         *identity.PublicUser `json:"user,omitempty"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

/*
Register creates a new account from a multipart form.

POST /api/v1/users/register

Request:
  - Form: username, email, password, fullName, avatar (file), coverImage (optional file)

Response:
  - 201: PublicUser
  - 400: Missing field or avatar
  - 409: Username or email taken
  - 500: Upload or creation failure
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseMultipart(writer, request, handler.config.MaxUploadBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer requestutil.CleanupMultipart(request)

	avatar, err := requestutil.SaveFormFile(request, identity.FieldAvatar, handler.config.UploadDir)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	coverImage, err := requestutil.SaveFormFile(request, identity.FieldCoverImage, handler.config.UploadDir)
	if err != nil {
		requestutil.RemoveFiles(avatar)
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	// Files the uploader never reached (validation or conflict) are removed here.
	defer requestutil.RemoveFiles(avatar, coverImage)

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:   requestutil.FormValue(request, identity.FieldUsername),
		Email:      requestutil.FormValue(request, identity.FieldEmail),
		Password:   request.FormValue(identity.FieldPassword),
		FullName:   requestutil.FormValue(request, identity.FieldFullName),
		Avatar:     avatar,
		CoverImage: coverImage,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user, "User registered successfully")
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Request:
  - Body: loginRequest (Username or Email, Password)

Response:
  - 200: sessionResponse, plus accessToken and refreshToken cookies
  - 400: Missing identifier
  - 404: Unknown user
  - 401: Wrong password (no cookies set)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, sessionResponse{
		User:         session.User,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, "User logged in successfully")
}

/*
Refresh issues a new token pair from the current refresh token.

POST /api/v1/users/refresh-token

Description: The token is read from the "refreshToken" cookie, falling back
to the JSON body field of the same name.

Response:
  - 200: sessionResponse, plus rotated cookies
  - 401: Missing, invalid, expired or superseded token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		token = cookie.Value
	}

	if token == "" && request.ContentLength != 0 {
		var input refreshRequest
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}
		token = input.RefreshToken
	}

	session, err := handler.authService.Refresh(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, "Access token refreshed")
}

/*
Logout terminates the current session.

POST /api/v1/users/logout

Response:
  - 200: Empty object, both cookies cleared
  - 401: Guard failure
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims := ctxutil.GetAccessClaims(request.Context())
	if err := handler.authService.Logout(request.Context(), user.ID, claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)

	respond.OK(writer, struct{}{}, "User logged out")
}

/*
ChangePassword replaces the authenticated user's password.

POST /api/v1/users/change-password

Request:
  - Body: changePasswordRequest (OldPassword, NewPassword)

Response:
  - 200: Empty object
  - 400: Missing field or wrong old password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	err = handler.authService.ChangePassword(request.Context(), user.ID, ChangePasswordInput{
		OldPassword: input.OldPassword,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, struct{}{}, "Password changed successfully")
}

// # Cookies

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, session.AccessToken, handler.authService.tokens.AccessTTL()))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, session.RefreshToken, handler.authService.tokens.RefreshTTL()))
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, "", -1))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, "", -1))
}

// cookie builds an auth cookie. A negative ttl deletes it.
func (handler *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl / time.Second)
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.AuthCookiePath,
		MaxAge:   maxAge,
		Secure:   handler.config.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
