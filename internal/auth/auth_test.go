package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "todopro-test",
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "complex password", password: "P@ssw0rd!#$%^&*()"},
		{name: "unicode password", password: "密码123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, hasher.Verify(tt.password, hash))
			assert.False(t, hasher.Verify(tt.password+"1", hash))
			assert.False(t, hasher.Verify("", hash))
		})
	}
}

func TestNewPasswordHasher_FallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 10, NewPasswordHasher(10).cost)
}

func TestJWTManager_IssueAndValidate(t *testing.T) {
	manager := NewJWTManager(testConfig())

	pair, err := manager.IssuePair(42, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := manager.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	refresh, err := manager.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), refresh.UserID)
}

func TestJWTManager_RejectsWrongTokenType(t *testing.T) {
	manager := NewJWTManager(testConfig())
	pair, err := manager.IssuePair(1, "alice")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = manager.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsForeignSignature(t *testing.T) {
	other := testConfig()
	other.SecretKey = "another-secret"
	pair, err := NewJWTManager(other).IssuePair(1, "alice")
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig()).ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager(testConfig()).ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager(testConfig())
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issued }

	pair, err := manager.IssuePair(1, "alice")
	require.NoError(t, err)

	manager.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = manager.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = manager.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}
