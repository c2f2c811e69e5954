// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/respond"
)

// # Rate Limiting

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipBuckets keeps one token bucket per client IP.
type ipBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// reserve takes a token for ip. It returns 0 when the request may proceed,
// otherwise how long the client should wait.
func (set *ipBuckets) reserve(ip string) time.Duration {
	set.mu.Lock()
	defer set.mu.Unlock()

	now := set.now()
	entry, found := set.buckets[ip]
	if !found {
		entry = &bucket{limiter: rate.NewLimiter(set.limit, set.burst)}
		set.buckets[ip] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Duration(math.MaxInt64)
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return delay
	}
	return 0
}

func (set *ipBuckets) evictIdle(ttl time.Duration) {
	set.mu.Lock()
	defer set.mu.Unlock()

	cutoff := set.now().Add(-ttl)
	for ip, entry := range set.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(set.buckets, ip)
		}
	}
}

/*
RateLimit throttles requests per client IP with a token bucket.

Each call owns an independent set of buckets, so the credential endpoints can
be throttled harder than the rest of the API. Rejected requests get 429 with
a Retry-After header in whole seconds. Idle buckets are evicted until ctx is
cancelled.
*/
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	set := &ipBuckets{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				set.evictIdle(constants.RateLimitClientTTL)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			wait := set.reserve(RealIP(request))
			if wait == 0 {
				next.ServeHTTP(writer, request)
				return
			}

			seconds := retryAfterSeconds(wait)
			writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
			respond.Error(writer, request, apperr.RateLimited(seconds))
		})
	}
}

// retryAfterSeconds rounds wait up to whole seconds, capped at one hour.
func retryAfterSeconds(wait time.Duration) int {
	if wait > time.Hour {
		return int(time.Hour / time.Second)
	}
	return max(1, int(math.Ceil(wait.Seconds())))
}
