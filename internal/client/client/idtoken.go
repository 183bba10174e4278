package client

import (
	"fmt"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims are the Firebase ID token claims the client cares about.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// SessionFromIDToken decodes the claims of a Firebase ID token without
// verifying its signature. Only tokens returned by the backend are passed in.
func SessionFromIDToken(idToken string) (*models.AuthSession, error) {
	claims := &IDTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("decode id token: %w", err)
	}

	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return nil, fmt.Errorf("decode id token: no subject")
	}

	return &models.AuthSession{UID: uid, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}
