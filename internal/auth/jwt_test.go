package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/testutil"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testutil.Config()

	signed, exp, err := auth.GenerateAccessToken(cfg, "USR0000001", models.RoleAdmin, "ACD0000001")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(cfg.AccessTokenTTL), exp, 5*time.Second)

	claims, err := auth.ParseAndValidateToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, "USR0000001", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "ACD0000001", claims.AcademyID)
	assert.Equal(t, cfg.JWTIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejects(t *testing.T) {
	cfg := testutil.Config()
	signed, _, err := auth.GenerateAccessToken(cfg, "USR0000001", models.RoleUser, "")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := testutil.Config()
		other.JWTSecret = "another-secret"
		_, err := auth.ParseAndValidateToken(other, signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testutil.Config()
		other.JWTIssuer = "someone-else"
		_, err := auth.ParseAndValidateToken(other, signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		short := testutil.Config()
		short.AccessTokenTTL = -time.Minute
		expired, _, err := auth.GenerateAccessToken(short, "USR0000001", models.RoleUser, "")
		require.NoError(t, err)
		_, err = auth.ParseAndValidateToken(cfg, expired)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ParseAndValidateToken(cfg, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
