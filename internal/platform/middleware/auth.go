// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidstream/internal/platform/request"
	"github.com/taibuivan/vidstream/internal/platform/respond"
	"github.com/taibuivan/vidstream/internal/platform/sec"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

// IdentityResolver turns a raw access token into the user it belongs to.
//
// Defining the interface here keeps middleware free of the auth service
// implementation and lets tests inject a fake.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (*identity.PublicUser, *sec.AccessClaims, error)
}

// RequireAuth rejects requests without a valid access token.
//
// # Flow
//  1. Read the token from the "accessToken" cookie, then the Authorization header.
//  2. Abort with 401 if no token was presented.
//  3. Resolve it via [IdentityResolver]; any failure aborts the request.
//  4. Inject the [*identity.PublicUser] and its claims into the request context.
func RequireAuth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := requestutil.AccessToken(request)
			if token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
				return
			}

			user, claims, err := resolver.Resolve(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, withIdentity(request, user, claims))
		})
	}
}

// OptionalAuth attaches the user when a valid token is presented and lets
// anonymous or invalid-token requests through unauthenticated. Any resolver
// failure other than UNAUTHORIZED aborts the request.
func OptionalAuth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := requestutil.AccessToken(request)
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			user, claims, err := resolver.Resolve(request.Context(), token)
			if err != nil {
				if !apperr.HasCode(err, apperr.CodeUnauthorized) {
					respond.Error(writer, request, err)
					return
				}
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "optional_auth_ignored_token",
					slog.String("reason", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			next.ServeHTTP(writer, withIdentity(request, user, claims))
		})
	}
}

func withIdentity(request *http.Request, user *identity.PublicUser, claims *sec.AccessClaims) *http.Request {
	if trace := traceFrom(request.Context()); trace != nil {
		trace.userID = user.ID
	}

	ctx := ctxutil.WithAuthUser(request.Context(), user)
	ctx = ctxutil.WithAccessClaims(ctx, claims)
	return request.WithContext(ctx)
}
