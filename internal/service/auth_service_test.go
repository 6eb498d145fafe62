package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingocache/internal/config"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s3cret", ClientID: "web", ClientSecret: "pw", TokenTTLMin: 5})

	resp, err := svc.IssueToken("web", "pw")
	require.NoError(t, err)
	assert.Equal(t, 300, resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "web", claims.ClientID)

	_, err = svc.IssueToken("web", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewAuthService(config.AuthConfig{JWTSecret: "different", ClientID: "web", ClientSecret: "pw"})
	_, err = other.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthServiceWithoutClient(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "s3cret"})
	_, err := svc.IssueToken("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
