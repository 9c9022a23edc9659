// Package authtest mints tokens shaped like the backend's for tests.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"employee-portal/internal/auth"
)

// Token returns an HS256 token for sub/email signed with a throwaway key.
func Token(t testing.TB, sub, email string) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("authtest-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
