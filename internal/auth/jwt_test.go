package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("account-1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "account-1", claims.Subject)
	require.Equal(t, "orgconsole", claims.Issuer)
	require.WithinDuration(t, time.Now().Add(sessionLifetime), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateToken("account-1")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "second-secret")
	_, err = ParseToken(token)
	require.Error(t, err)
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateToken("account-1")
	require.ErrorIs(t, err, errMissingSecret)

	_, err = ParseToken("whatever")
	require.ErrorIs(t, err, errMissingSecret)
}
