package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("user-42", "secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ParseToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewToken("user-42", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	require.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := NewToken("user-42", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	require.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", "secret")
	require.Error(t, err)
}
