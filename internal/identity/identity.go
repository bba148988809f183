package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"

	"github.com/tidegram/backend/internal/models"
	"github.com/tidegram/backend/internal/repositories"
)

// ErrInvalidToken covers missing, malformed, expired and badly-signed
// credentials. Callers treat it as terminal for the attempt.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a presented credential to a stable user identifier.
// The engine never mints tokens; it only consumes them.
type Verifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

// JWTVerifier validates HMAC-signed tokens issued by the auth service.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrInvalidToken
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// FirebaseVerifier validates Firebase ID tokens and maps the Firebase UID to
// the local user record.
type FirebaseVerifier struct {
	client *auth.Client
	users  repositories.UserRepository
}

func NewFirebaseVerifier(client *auth.Client, users repositories.UserRepository) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrInvalidToken
	}

	token, err := v.client.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return 0, ErrInvalidToken
	}

	user, err := v.users.GetUserByFirebaseUID(token.UID)
	if err != nil {
		return 0, fmt.Errorf("authenticated user not found: %w", err)
	}
	return user.ID, nil
}
