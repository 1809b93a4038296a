package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, expiresAt, err := tm.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a").GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret")
	token, _, err := tm.GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}
