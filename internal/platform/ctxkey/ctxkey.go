// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed context keys shared by middleware and handlers.
// The key type is unexported, so no other package can collide with these values.
package ctxkey

type key uint8

const (
	// RequestID holds the X-Request-ID correlation value.
	RequestID key = iota + 1

	// Logger holds the per-request *slog.Logger.
	Logger

	// User holds the *identity.PublicUser resolved by the auth guard.
	User

	// AccessClaims holds the *sec.AccessClaims of the presenting access token.
	AccessClaims

	// ClientIP holds the client address resolved from the peer and trusted proxies.
	ClientIP
)
