package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type RateLimiter interface {
	// Allow returns isAllowed, attempts left and seconds to wait.
	Allow(ctx context.Context, key string) (bool, int, int, error)
}

// RateLimit throttles writes per authenticated user, falling back to the
// remote address. Limiter failures let the request through.
func RateLimit(limiter RateLimiter, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := LoggerFromContext(r.Context())

		key := "ip:" + r.RemoteAddr
		if identity, ok := IdentityFromContext(r.Context()); ok {
			key = "user:" + identity.UserID.String()
		}

		allowed, remaining, retryAfter, err := limiter.Allow(r.Context(), key)
		if err != nil {
			logger.Error("Rate limiter unavailable", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, appErrors.TooManyRequestsError("Too many requests, please retry later"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	}
}
