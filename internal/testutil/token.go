package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Token returns an HS256 token for userID that expires at exp. A zero exp
// produces a token without the claim.
func Token(t testing.TB, userID string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: userID}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}
