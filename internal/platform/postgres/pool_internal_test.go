// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(Options{
		DSN:              "postgres://app:secret@db:5432/vidstream?sslmode=disable",
		StatementTimeout: 3 * time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(defaultMaxConns), cfg.MaxConns)
	assert.Equal(t, "vidstream", cfg.ConnConfig.Database)
	assert.Equal(t, "3000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestPoolConfig_Overrides(t *testing.T) {
	cfg, err := poolConfig(Options{DSN: "postgres://db/vidstream", MaxConns: 1})

	require.NoError(t, err)
	assert.Equal(t, int32(1), cfg.MaxConns)
	assert.Equal(t, int32(1), cfg.MinConns)
	assert.NotContains(t, cfg.ConnConfig.RuntimeParams, "statement_timeout")
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	_, err := poolConfig(Options{DSN: "postgres://db:notaport/vidstream"})
	assert.ErrorContains(t, err, "postgres: invalid DSN")
}

func TestPing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), mock))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorContains(t, Ping(context.Background(), mock), "postgres: ping failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}
