package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type AuthMiddleware struct {
	authClient *auth.Client
}

func NewAuthMiddleware(authClient *auth.Client) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
	}
}

// Authenticate requires a valid Bearer token and stores the caller's
// uid in the echo context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken, err := bearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		token, err := m.authClient.VerifyIDToken(c.Request().Context(), idToken)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", token.UID)

		return next(c)
	}
}

// OptionalAuthenticate sets uid when a valid token is present but lets
// anonymous requests through.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken, err := bearerToken(c)
		if err != nil {
			return next(c)
		}

		token, err := m.authClient.VerifyIDToken(c.Request().Context(), idToken)
		if err != nil {
			return next(c)
		}

		c.Set("uid", token.UID)
		return next(c)
	}
}

// GetUIDFromToken verifies a raw token outside the middleware chain.
// The websocket handler uses this for tokens passed as a query param.
func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	firebaseToken, err := m.authClient.VerifyIDToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	return firebaseToken.UID, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}

	return parts[1], nil
}
