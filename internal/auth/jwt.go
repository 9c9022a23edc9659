package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be decoded into Claims.
var ErrMalformedToken = errors.New("malformed token")

// Claims is the payload the backend puts in the tokens it issues.
// The username travels in "sub".
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the display information derived from a token.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (c *Claims) Identity() Identity {
	return Identity{Username: c.Subject, Email: c.Email}
}

// DecodeUnverified extracts the claims of a token WITHOUT checking its
// signature or expiry. The result is only fit for display: the backend is
// the sole authority on whether the token is valid, and no authorization
// decision may be based on these claims.
func DecodeUnverified(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedToken)
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// StripScheme removes an optional "Bearer " prefix from an Authorization value.
func StripScheme(v string) string {
	v = strings.TrimSpace(v)
	parts := strings.SplitN(v, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return v
}
