package web

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// apiKeyHeader is also accepted as a query parameter so browser WebSocket
// clients, which cannot set headers, can authenticate.
const apiKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests that do not carry the configured key.
// The core behind this middleware trusts every request that reaches it.
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(apiKeyHeader)
			if provided == "" {
				provided = c.QueryParam(apiKeyHeader)
			}
			if provided != apiKey {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Status: "error",
					Error: ErrorDetail{
						Code:    "UNAUTHORIZED",
						Message: "missing or invalid API key",
					},
				})
			}
			return next(c)
		}
	}
}

// RateLimit enforces a per-client token bucket of perMinute requests.
// Buckets are keyed by the client IP, matching the original deployment's
// per-address budget.
func RateLimit(perMinute int) echo.MiddlewareFunc {
	var mu sync.Mutex
	buckets := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := buckets[key]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
			buckets[key] = limiter
		}
		return limiter
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiterFor(c.RealIP()).Allow() {
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{
					Status: "error",
					Error: ErrorDetail{
						Code:    "RATE_LIMITED",
						Message: "too many requests",
					},
				})
			}
			return next(c)
		}
	}
}
