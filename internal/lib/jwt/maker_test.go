package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewMaker(secretKey, 15*time.Minute, 24*time.Hour)

	tests := []struct {
		name     string
		username string
		userID   int
		isAdmin  bool
	}{
		{
			name:     "admin user",
			username: "admin_user",
			userID:   1,
			isAdmin:  true,
		},
		{
			name:     "regular user",
			username: "regular_user",
			userID:   42,
			isAdmin:  false,
		},
		{
			name:     "user with numbers in username",
			username: "user123",
			userID:   7,
			isAdmin:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateAccessToken(tt.username, tt.userID, tt.isAdmin)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.isAdmin, claims.IsAdmin)
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestMaker_RefreshToken(t *testing.T) {
	maker := NewMaker("test_secret_key", 15*time.Minute, 24*time.Hour)

	token, err := maker.GenerateRefreshToken("testuser", 5, false)
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewMaker(secretKey, 15*time.Minute, 24*time.Hour)

	validToken, err := maker.GenerateAccessToken("testuser", 1, false)
	require.NoError(t, err)

	expiredMaker := NewMaker(secretKey, -time.Hour, -time.Hour)
	expiredToken, err := expiredMaker.GenerateAccessToken("testuser", 1, false)
	require.NoError(t, err)

	wrongMaker := NewMaker("wrong_secret_key", 15*time.Minute, 24*time.Hour)
	wrongKeyToken, err := wrongMaker.GenerateAccessToken("testuser", 1, false)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expiredToken},
		{name: "wrong secret key", token: wrongKeyToken},
		{name: "tampered token", token: validToken + "tampered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewMaker("first_secret_key", 15*time.Minute, time.Hour)
	maker2 := NewMaker("different_secret_key", 15*time.Minute, time.Hour)

	token, err := maker1.GenerateAccessToken("testuser", 1, true)
	require.NoError(t, err)

	claims, err := maker2.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}
