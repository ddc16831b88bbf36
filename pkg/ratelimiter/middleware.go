package ratelimiter

import (
	"net"
	"net/http"
	"strconv"
)

// KeyFunc derives the rate-limit key from a request.
type KeyFunc func(r *http.Request) string

// KeyByIP buckets requests by client IP, trusting X-Forwarded-For when the
// service runs behind a reverse proxy (original deployment topology).
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware limits requests per key, responding 429 with Retry-After when
// the bucket is exhausted. Store failures fail open: throttling is an abuse
// control, not an authorization control, so a degraded redis must not take
// authentication down with it.
func Middleware(bucket *Bucket, keyFn KeyFunc) func(next http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = KeyByIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := bucket.Allow(r.Context(), keyFn(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed() {
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter().Seconds())+1))
				http.Error(w, "too many requests, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
