package middleware

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout applies to routes that never call the completion service
	DefaultRequestTimeout = 10 * time.Second
)

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout bounds handler run time. Insight routes are not wrapped; their
// deadline is the completion client's timeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			handler := http.TimeoutHandler(next, timeout, timeoutBody)
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
