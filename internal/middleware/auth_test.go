package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegram/backend/internal/identity"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (uint, error) {
	if token == "valid" {
		return 11, nil
	}
	return 0, identity.ErrInvalidToken
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := AuthMiddleware(stubVerifier{})(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": c.Get("userID")})
	})
	return rec, handler(c)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	rec, err := runAuth(t, "Bearer valid")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"user":11`)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "valid"},
		{"wrong scheme", "Basic valid"},
		{"invalid token", "Bearer nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runAuth(t, tc.header)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}
