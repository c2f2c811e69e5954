// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
)

// # Access Token Denylist

// RedisDenylist implements [Denylist] with one expiring key per token ID.
//
// Keys live exactly as long as the token they block, so the set never needs
// a cleanup job.
type RedisDenylist struct {
	client  redis.Cmdable
	timeout time.Duration
	now     func() time.Time
}

// NewRedisDenylist creates a new Redis-backed [Denylist].
func NewRedisDenylist(client redis.Cmdable, timeout time.Duration) *RedisDenylist {
	return &RedisDenylist{client: client, timeout: timeout, now: time.Now}
}

/*
Revoke blocks the token until expiresAt.

Parameters:
  - ctx: context.Context
  - tokenID: string (the "jti" claim)
  - expiresAt: time.Time (the "exp" claim)

Returns:
  - error: apperr.Unavailable when Redis does not answer
*/
func (repository *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(repository.now())
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repository.timeout)
	defer cancel()

	if err := repository.client.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_denylist_set_failed: %w", apperr.Unavailable(err))
	}

	return nil
}

/*
IsRevoked reports whether the token was logged out.

Returns:
  - bool: true when the token ID is on the denylist
  - error: apperr.Unavailable when Redis does not answer
*/
func (repository *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repository.timeout)
	defer cancel()

	count, err := repository.client.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_exists_failed: %w", apperr.Unavailable(err))
	}

	return count > 0, nil
}

func key(tokenID string) string {
	return constants.RedisPrefixRevokedJTI + tokenID
}
