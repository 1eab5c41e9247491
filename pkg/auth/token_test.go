package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerdash/grocerdash-backend/pkg/config"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "unit-test-secret", Issuer: "grocerdash"}
}

func TestSignAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := SignAccessToken(cfg, userID, enums.RoleDeliveryPartner, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleDeliveryPartner, claims.Role)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := SignAccessToken(cfg, uuid.New(), enums.RoleCustomer, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(testJWTConfig(), uuid.New(), enums.RoleCustomer, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: "grocerdash"}, token)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(config.JWTConfig{Secret: "s", Issuer: "someone-else"}, uuid.New(), enums.RoleAdmin, time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "s", Issuer: "grocerdash"}, token)
	assert.Error(t, err)
}
