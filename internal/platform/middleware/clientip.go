// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
)

// # Client Address

/*
ClientIP resolves the client address once and stores it on the context for
the logger and the rate limiter.

Forwarding headers are believed only when the TCP peer is inside trusted.
X-Forwarded-For is then walked right to left and the first hop outside
trusted is the client. With no trusted proxies the peer is always the client,
so a caller cannot pick its own rate limit bucket.
*/
func ClientIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ip := resolveClientIP(request, trusted)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClientIP(request.Context(), ip)))
		})
	}
}

// RealIP returns the address resolved by [ClientIP], or the TCP peer when the
// request did not pass through it. Forwarding headers are never read here.
func RealIP(request *http.Request) string {
	if ip := ctxutil.GetClientIP(request.Context()); ip != "" {
		return ip
	}
	return peerHost(request.RemoteAddr)
}

func resolveClientIP(request *http.Request, trusted []netip.Prefix) string {
	peer := peerHost(request.RemoteAddr)
	if !isTrusted(peer, trusted) {
		return peer
	}

	if forwarded := request.Header.Values(constants.HeaderXForwardedFor); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")

		// Each trusted hop vouches for the one to its left. A malformed hop
		// ends the chain at the last address a trusted proxy wrote.
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return client
			}
			client = addr.Unmap().String()
			if !isTrusted(client, trusted) {
				return client
			}
		}
		return client
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP))); err == nil {
		return addr.Unmap().String()
	}

	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
