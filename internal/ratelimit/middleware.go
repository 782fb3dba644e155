package ratelimit

import (
	"net"
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the Retry-After header value when a rate
// limit is exceeded.
const DefaultRetryAfterSeconds = 1

// Middleware enforces per-client-IP rate limits. It returns 429 Too Many
// Requests with Retry-After and X-RateLimit-Remaining headers when the
// limit is exceeded.
func Middleware(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := limiter.GetLimiter(clientKey(r))

		if !limit.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Too Many Requests"))
			return
		}

		remaining := int(limit.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		next.ServeHTTP(w, r)
	})
}

// clientKey extracts the client IP, ignoring the ephemeral port so one
// client maps to one bucket.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
