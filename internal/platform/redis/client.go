// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for volatile data storage.

It backs the access token denylist: when a user logs out, the "jti" of the
presenting access token is stored here until the token would have expired
anyway, and the auth guard rejects any token whose "jti" is present.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize       = 10
	defaultCommandTimeout = time.Second
	dialTimeout           = 3 * time.Second
	pingTimeout           = 2 * time.Second
)

// Options describes how to reach the Redis server.
type Options struct {
	// URL is a redis:// or rediss:// connection string.
	URL string

	// PoolSize caps open connections. Zero uses the package default.
	PoolSize int

	// CommandTimeout bounds socket reads and writes of a single command.
	CommandTimeout time.Duration
}

/*
NewClient parses the connection URL and returns a client that answered a PING.

Parameters:
  - ctx: context.Context (bounds the startup ping)
  - opts: Options
  - logger: *slog.Logger

Returns:
  - *redis.Client: Ready client
  - error: Invalid URL or unreachable server
*/
func NewClient(ctx context.Context, opts Options, logger *slog.Logger) (*redis.Client, error) {
	parsed, err := clientOptions(opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(parsed)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
		slog.Int("pool_size", parsed.PoolSize),
	)
	return client, nil
}

// clientOptions applies pool and deadline settings on top of the parsed URL.
func clientOptions(opts Options) (*redis.Options, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	parsed.PoolSize = defaultPoolSize
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}
	parsed.MinIdleConns = max(1, parsed.PoolSize/5)

	commandTimeout := defaultCommandTimeout
	if opts.CommandTimeout > 0 {
		commandTimeout = opts.CommandTimeout
	}
	parsed.DialTimeout = dialTimeout
	parsed.ReadTimeout = commandTimeout
	parsed.WriteTimeout = commandTimeout
	parsed.ContextTimeoutEnabled = true

	return parsed, nil
}

// Ping verifies that the Redis server answers within a short deadline.
func Ping(ctx context.Context, client redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}
