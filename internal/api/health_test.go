// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	liveness, _ := NewHealthHandlers(HealthDependencies{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	recorder := httptest.NewRecorder()

	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ok"`)
	assert.Contains(t, recorder.Body.String(), `"version":"0.1.0-dev"`)
}

func TestReadiness(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		deps     HealthDependencies
		status   int
		expected string
	}{
		{"all_healthy", HealthDependencies{CheckDatabase: healthy, CheckCache: healthy}, http.StatusOK, "ready"},
		{"database_down", HealthDependencies{CheckDatabase: broken, CheckCache: healthy}, http.StatusServiceUnavailable, "degraded"},
		{"cache_down", HealthDependencies{CheckDatabase: healthy, CheckCache: broken}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := NewHealthHandlers(tt.deps, slog.New(slog.NewTextHandler(io.Discard, nil)))
			recorder := httptest.NewRecorder()

			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.status, recorder.Code)

			var envelope struct {
				Data struct {
					Status string        `json:"status"`
					Checks []checkResult `json:"checks"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.expected, envelope.Data.Status)
			assert.Len(t, envelope.Data.Checks, 2)
		})
	}
}
