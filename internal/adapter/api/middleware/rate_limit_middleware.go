package middleware

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/infrastructure/ratelimit"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
	"campusmarket/pkg/response"
)

var authLimiter = ratelimit.NewRateLimiter()

func init() {
	authLimiter.StartCleanupRoutine()
}

// AuthRateLimit throttles the credential endpoints by client IP.
func AuthRateLimit() echo.MiddlewareFunc {
	return rateLimitBy("auth")
}

func rateLimitBy(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if allowed, wait := authLimiter.Allow(ip, action); !allowed {
				logger.Warn("Rate limited %s request from %s (retry in %v)", action, ip, wait)
				return response.Error(c, errors.TooManyRequests("Too many attempts. Please try again later"))
			}

			return next(c)
		}
	}
}
