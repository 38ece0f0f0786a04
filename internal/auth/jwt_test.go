package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestJWTManager(t *testing.T) JWTManagerInterface {
	t.Setenv("JWT_SECRET", "test-secret")
	return NewJWTManager()
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateAccessJWT("user-123", defaultJWTDuration)
	assert.NoError(t, err)

	userID, err := manager.ValidateAccessToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestAccessTokenExpired(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateAccessJWT("user-123", -time.Minute)
	assert.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	manager := newTestJWTManager(t)
	token, err := manager.GenerateAccessJWT("user-123", defaultJWTDuration)
	assert.NoError(t, err)

	other := &JWTManager{secret: "other-secret"}
	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenHashRotation(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateRefreshJWT("user-123", "hash-before", defaultJWTRefreshDuration)
	assert.NoError(t, err)

	userID, err := manager.ExtractUserIDFromRefreshToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	assert.NoError(t, manager.ValidateRefreshToken(token, "hash-before"))

	// Rotating the hash token must invalidate previously issued tokens.
	err = manager.ValidateRefreshToken(token, "hash-after")
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}

func TestRefreshTokenExpired(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateRefreshJWT("user-123", "hash", -time.Minute)
	assert.NoError(t, err)

	err = manager.ValidateRefreshToken(token, "hash")
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
}
