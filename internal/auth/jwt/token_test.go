package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr := NewManager(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	})
	userID := uuid.New()

	access, err := mgr.GenerateAccessToken(userID, "asha")
	require.NoError(t, err)

	claims, err := mgr.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "quest-server", claims.Issuer)

	// An access token must not validate against the refresh secret.
	_, err = mgr.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	mgr := NewManager(TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     -time.Minute,
	})

	token, err := mgr.GenerateAccessToken(uuid.New(), "asha")
	require.NoError(t, err)

	_, err = mgr.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenGarbageRejected(t *testing.T) {
	mgr := NewManager(TokenConfig{AccessSecret: []byte("s")})
	_, err := mgr.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
