package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(accessTTL time.Duration) *JWTService {
	return NewJWTService("access-secret", "refresh-secret", accessTTL, time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(time.Minute)

	token, err := svc.GenerateAccessToken("u1", ScopeUser)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, ScopeUser, claims.Scope)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	svc := newTestService(time.Minute)

	refresh, err := svc.GenerateRefreshToken("u1", ScopeUser)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestAccessTokenNotValidAsRefresh(t *testing.T) {
	svc := newTestService(time.Minute)

	access, err := svc.GenerateAccessToken("u1", ScopeAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, err := svc.GenerateAccessToken("u1", ScopeUser)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	svc := newTestService(time.Minute)
	other := NewJWTService("different", "different", time.Minute, time.Hour)

	token, err := other.GenerateAccessToken("u1", ScopeUser)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageToken(t *testing.T) {
	svc := newTestService(time.Minute)
	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, CheckPassword(hash, "secret1"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
