package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit creates HTTP middleware that throttles requests with a
// token bucket. The limit parameter sets requests per second, while
// burst allows temporary spikes above the sustained rate. Requests
// arriving with the bucket empty fail fast with 429 rather than
// queueing, so a flood of submissions cannot pile up goroutines.
//
// A zero limit disables throttling.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
