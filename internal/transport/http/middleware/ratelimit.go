package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"hrmgate/internal/transport/http/api"
)

// RateLimit limits requests per client IP over window. A non-positive limit
// disables limiting.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// LoginRateLimit throttles sign-in attempts more tightly than general traffic.
func LoginRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	if baseLimit <= 0 {
		return RateLimit(0, window)
	}
	return RateLimit(max(baseLimit/4, 1), window)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "rate limit exceeded", "path", r.URL.Path, "method", r.Method)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
}
