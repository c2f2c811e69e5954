// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
	"github.com/taibuivan/vidstream/internal/platform/validate"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// # Tokens

/*
BearerToken extracts the credential from an Authorization header value.

The scheme is matched case-insensitively and the separating whitespace is
removed with it, so "Bearer abc" yields "abc" and never " abc".

Returns an empty string when the header is absent or uses another scheme.
*/
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

/*
AccessToken returns the access token presented by the client.

Sources in order: the "accessToken" cookie, then the Authorization header.
*/
func AccessToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return BearerToken(request.Header.Get("Authorization"))
}

// # Identity

/*
User returns the user attached by the auth guard, or nil for anonymous requests.
*/
func User(request *http.Request) *identity.PublicUser {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredUser ensures the request is authenticated and returns the resolved user.

Returns:
  - *identity.PublicUser: The authenticated user
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredUser(request *http.Request) (*identity.PublicUser, error) {
	user := ctxutil.GetAuthUser(request.Context())
	if user == nil {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	return user, nil
}
