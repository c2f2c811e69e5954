// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil stores and reads per-request values on [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/vidstream/internal/platform/ctxkey"
	"github.com/taibuivan/vidstream/internal/platform/sec"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

// value returns the typed value under key, or the zero value of T.
func value[T any](ctx context.Context, key any) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// # Request Tracing

// WithRequestID attaches the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.RequestID, id)
}

// GetRequestID returns the request ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	return value[string](ctx, ctxkey.RequestID)
}

// WithClientIP attaches the resolved client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxkey.ClientIP, ip)
}

// GetClientIP returns the resolved client address, or "" when unresolved.
func GetClientIP(ctx context.Context) string {
	return value[string](ctx, ctxkey.ClientIP)
}

// # Structured Logging

// WithLogger attaches the per-request logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.Logger, logger)
}

// GetLogger returns the per-request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger := value[*slog.Logger](ctx, ctxkey.Logger); logger != nil {
		return logger
	}
	return slog.Default()
}

// # Identity & Access

// WithAuthUser attaches the user resolved by the auth guard.
func WithAuthUser(ctx context.Context, user *identity.PublicUser) context.Context {
	return context.WithValue(ctx, ctxkey.User, user)
}

// GetAuthUser returns the resolved user, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *identity.PublicUser {
	return value[*identity.PublicUser](ctx, ctxkey.User)
}

// WithAccessClaims attaches the verified claims of the presenting access token.
func WithAccessClaims(ctx context.Context, claims *sec.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxkey.AccessClaims, claims)
}

// GetAccessClaims returns the access token claims, or nil for anonymous requests.
func GetAccessClaims(ctx context.Context) *sec.AccessClaims {
	return value[*sec.AccessClaims](ctx, ctxkey.AccessClaims)
}
