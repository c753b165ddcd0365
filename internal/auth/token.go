package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is what the client reads out of the bearer token the backend issued.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID returns the user identity the token was issued for.
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Inspector reads claims and expiry out of a bearer token without verifying
// its signature. The client never holds the signing secret; the token is
// opaque to it and the server remains the authority. Inspection only decides
// whether a round trip is still worth making.
type Inspector struct {
	parser *jwt.Parser
}

func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

// Inspect decodes the token's claims. A malformed token returns
// ErrInvalidToken; expiry is not checked here.
func (i *Inspector) Inspect(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Valid reports whether the token decodes and its expiry lies after now.
// A token without an expiry claim counts as invalid.
func (i *Inspector) Valid(tokenString string, now time.Time) bool {
	claims, err := i.Inspect(tokenString)
	if err != nil {
		return false
	}
	return claims.ExpiresAt != nil && now.Before(claims.ExpiresAt.Time)
}
