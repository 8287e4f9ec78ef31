package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("testpassword123")
	require.NoError(t, err)
	return NewService("operator", hash)
}

func TestNewService(t *testing.T) {
	service := NewService("operator", "")
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "testpassword123", hash)
}

func TestService_Authenticate(t *testing.T) {
	service := newTestService(t)

	assert.NoError(t, service.Authenticate("operator", "testpassword123"))
	assert.ErrorIs(t, service.Authenticate("operator", "wrongpassword"), ErrInvalidCredentials)
	assert.ErrorIs(t, service.Authenticate("someoneelse", "testpassword123"), ErrInvalidCredentials)
}

func TestService_AuthenticateLockedWithoutHash(t *testing.T) {
	service := NewService("operator", "")
	assert.ErrorIs(t, service.Authenticate("operator", "anything"), ErrInvalidCredentials)
}

func TestService_GenerateToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.GenerateToken("operator")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.GenerateToken("operator")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
	assert.Greater(t, claims.Exp, time.Now().Unix())

	// The Bearer prefix is accepted and stripped.
	claims, err = service.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username)
}

func TestService_ValidateTokenRejectsGarbage(t *testing.T) {
	service := newTestService(t)

	_, err := service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "-1h")
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	service := NewService("operator", hash)

	token, err := service.GenerateToken("operator")
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_ValidateTokenRejectsForeignSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	a := NewService("operator", "")
	token, err := a.GenerateToken("operator")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "secret-two")
	b := NewService("operator", "")
	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
