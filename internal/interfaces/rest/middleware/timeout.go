package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds the merchant-facing response time. The payment pipeline
// itself detaches from request cancellation, so a timed-out response never
// aborts an in-flight bank call.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeoutHandler := http.TimeoutHandler(
				next,
				timeout,
				`{"error":"SYSTEM_ERROR","message":"Request timeout"}`,
			)

			timeoutHandler.ServeHTTP(w, r)
		})
	}
}
