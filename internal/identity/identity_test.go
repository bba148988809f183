package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegram/backend/internal/models"
)

func signToken(t *testing.T, secret string, userID uint, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTVerify(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	userID, err := verifier.Verify(context.Background(), signToken(t, "test-secret", 42, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestJWTVerifyRejections(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	testCases := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not.a.jwt"},
		{"wrong secret", signToken(t, "other-secret", 42, time.Now().Add(time.Hour))},
		{"expired", signToken(t, "test-secret", 42, time.Now().Add(-time.Hour))},
		{"zero user id", signToken(t, "test-secret", 0, time.Now().Add(time.Hour))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
