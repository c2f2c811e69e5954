// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/sec"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

// # Auth Guard

// Guard resolves access tokens for the authentication middleware.
//
// It performs no writes. Every failure is UNAUTHORIZED except a store or
// cache that did not answer in time, which stays SERVICE_UNAVAILABLE.
type Guard struct {
	tokens   TokenIssuer
	store    identity.Store
	denylist Denylist
}

// NewGuard constructs a new [Guard].
func NewGuard(tokens TokenIssuer, store identity.Store, denylist Denylist) *Guard {
	return &Guard{tokens: tokens, store: store, denylist: denylist}
}

/*
Resolve verifies the access token and loads the user it was issued to.

Parameters:
  - ctx: context.Context
  - accessToken: string (already stripped of its scheme)

Returns:
  - *identity.PublicUser: The authenticated user without secrets
  - *sec.AccessClaims: Verified claims of the presented token
  - error: apperr.Unauthorized, or the store/cache failure (Unavailable, Internal)
*/
func (guard *Guard) Resolve(ctx context.Context, accessToken string) (*identity.PublicUser, *sec.AccessClaims, error) {
	if accessToken == "" {
		return nil, nil, apperr.Unauthorized(msgUnauthorized)
	}

	claims, err := guard.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, nil, apperr.Unauthorized(msgInvalidAccessToken).WithCause(err)
	}

	revoked, err := guard.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, guardFailure(err)
	}
	if revoked {
		return nil, nil, apperr.Unauthorized(msgAccessTokenRevoked)
	}

	user, err := guard.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, guardFailure(err)
	}

	return user.Public(), claims, nil
}

// guardFailure turns a vanished user into 401. Store and cache faults keep
// their own code so a server error never reads as bad credentials.
func guardFailure(err error) error {
	if apperr.IsNotFound(err) {
		return apperr.Unauthorized(msgInvalidAccessToken).WithCause(err)
	}
	return fmt.Errorf("auth_guard: %w", err)
}
