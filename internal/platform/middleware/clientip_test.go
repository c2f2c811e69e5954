// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidstream/internal/platform/middleware"
)

/*
TestClientIP_Resolution verifies forwarding headers only count behind a trusted proxy.
*/
func TestClientIP_Resolution(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name      string
		trusted   []netip.Prefix
		peer      string
		forwarded []string
		realIP    string
		want      string
	}{
		{"no_proxies_ignores_headers", nil, "192.0.2.1:1234", []string{"203.0.113.5"}, "198.51.100.7", "192.0.2.1"},
		{"untrusted_peer_ignores_headers", trusted, "192.0.2.1:1234", []string{"203.0.113.5"}, "", "192.0.2.1"},
		{"trusted_peer_uses_forwarded", trusted, "10.0.0.2:1234", []string{"203.0.113.5"}, "", "203.0.113.5"},
		{"skips_trusted_hops", trusted, "10.0.0.2:1234", []string{"198.51.100.9, 203.0.113.5, 10.1.1.1"}, "", "203.0.113.5"},
		{"spoofed_left_hop_ignored", trusted, "10.0.0.2:1234", []string{"1.2.3.4", "203.0.113.5"}, "", "203.0.113.5"},
		{"malformed_hop_stops_chain", trusted, "10.0.0.2:1234", []string{"garbage, 10.1.1.1"}, "", "10.1.1.1"},
		{"trusted_peer_uses_real_ip", trusted, "10.0.0.2:1234", nil, "198.51.100.7", "198.51.100.7"},
		{"trusted_peer_without_headers", trusted, "10.0.0.2:1234", nil, "", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.ClientIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				seen = middleware.RealIP(request)
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.peer
			for _, value := range tt.forwarded {
				request.Header.Add("X-Forwarded-For", value)
			}
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}

			handler.ServeHTTP(httptest.NewRecorder(), request)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRealIP_WithoutResolverUsesPeer(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.1:1234"
	request.Header.Set("X-Forwarded-For", "203.0.113.5")
	request.Header.Set("X-Real-IP", "198.51.100.7")

	assert.Equal(t, "192.0.2.1", middleware.RealIP(request))
}

/*
TestRateLimit_RotatingForwardedForIsThrottled verifies a single peer cannot mint
fresh buckets by varying X-Forwarded-For.
*/
func TestRateLimit_RotatingForwardedForIsThrottled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.ClientIP(nil)(middleware.RateLimit(ctx, 2, 10)(okHandler))

	allowed := 0
	for i := range 100 {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		request.RemoteAddr = "203.0.113.7:5555"
		request.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/250, i%250))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code == http.StatusOK {
			allowed++
		}
	}

	// Burst plus whatever refilled while the loop ran.
	assert.LessOrEqual(t, allowed, 12)
	assert.GreaterOrEqual(t, allowed, 10)
}
