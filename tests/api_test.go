package tests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"campusmarket/internal/adapter/api"
	"campusmarket/internal/adapter/api/handler"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler.SetupHealthHandler()
	healthHandler := handler.GetHealthHandler()

	if assert.NoError(t, healthHandler.CheckHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")
	}
}

func TestValidatorRejectsBadPayload(t *testing.T) {
	e := echo.New()
	e.Validator = api.NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var payload struct {
		Email string `json:"email" validate:"required,email"`
	}
	assert.NoError(t, c.Bind(&payload))
	assert.Error(t, c.Validate(&payload))
}

func TestErrorResponseMapping(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errors.NotFound("Chat", nil), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", errors.Forbidden("Not a participant", nil), http.StatusForbidden, "FORBIDDEN"},
		{"conflict", errors.Conflict("Chat already exists", nil), http.StatusConflict, "CONFLICT"},
		{"validation", errors.Validation("Message text is required", nil), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"rate limited", errors.TooManyRequests("Slow down"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			assert.NoError(t, response.Error(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

// Internal errors never leak their cause to the client.
func TestInternalErrorIsRedacted(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := errors.Internal("firestore exploded: credentials leaked", nil)
	assert.NoError(t, response.Error(c, err))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "firestore")
	assert.Contains(t, rec.Body.String(), "unexpected error")
}
