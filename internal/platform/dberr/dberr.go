// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
)

// SQLSTATE codes the application distinguishes.
const (
	codeUniqueViolation = "23505"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// resource names the missing entity in the NOT_FOUND message (e.g. "User").
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack.
	if apperr.As(err) != nil {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, redis.Nil) {
		return apperr.NotFound(resource).WithCause(err)
	}

	// 2. Unique index violation is the authoritative duplicate signal
	if IsUniqueViolation(err) {
		return apperr.Conflict(conflictMessage(err)).WithCause(err)
	}

	// 3. Collaborator did not answer in time or is unreachable
	if IsUnavailable(err) {
		return apperr.Unavailable(err)
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsUnavailable reports whether err means the store could not be reached in time.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr) || pgconn.Timeout(err)
}

// conflictMessage names the duplicated field from the violated index.
func conflictMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "uq_account_username":
			return "User with this username already exists"
		case "uq_account_email":
			return "User with this email already exists"
		}
	}
	return "User with email or username already exists"
}
