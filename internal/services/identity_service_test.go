package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsignal/incident-backend/internal/config"
	"github.com/fieldsignal/incident-backend/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-jwt-secret",
		JWTAlgorithm:       "HS256",
		JWTExpiresDays:     30,
		PhoneHashSecret:    "test-phone-secret",
		PhoneDefaultRegion: "PL",
	}
}

func newIdentityService() *IdentityService {
	return NewIdentityService(memory.NewStore().Users, testConfig())
}

func TestNormalizePhone(t *testing.T) {
	svc := newIdentityService()

	normalized, err := svc.NormalizePhone("+48 601 234 567")
	require.NoError(t, err)
	assert.Equal(t, "+48601234567", normalized)

	// National format resolves against the default region.
	normalized, err = svc.NormalizePhone("601 234 567")
	require.NoError(t, err)
	assert.Equal(t, "+48601234567", normalized)
}

func TestNormalizePhone_Invalid(t *testing.T) {
	svc := newIdentityService()

	_, err := svc.NormalizePhone("not a phone")
	assert.ErrorIs(t, err, ErrPhoneNormalization)

	_, err = svc.NormalizePhone("+48 1")
	assert.ErrorIs(t, err, ErrPhoneNormalization)
}

func TestHashPhone_Deterministic(t *testing.T) {
	svc := newIdentityService()

	first := svc.HashPhone("+48601234567")
	second := svc.HashPhone("+48601234567")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, svc.HashPhone("+48601234568"))
}

func TestAuthenticatePhone_CreatesThenReusesUser(t *testing.T) {
	svc := newIdentityService()
	ctx := context.Background()

	first, err := svc.AuthenticatePhone(ctx, "+48 601 234 567")
	require.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.Equal(t, "bearer", first.TokenType)
	assert.Equal(t, 0, first.User.Reputation)
	assert.Equal(t, 1, first.User.TokenVersion)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), first.ExpiresAt, 5*time.Second)

	// Spacing in the raw input must not change the derived identity.
	second, err := svc.AuthenticatePhone(ctx, "601234567")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, first.User.CreatedAt, second.User.CreatedAt)
	assert.False(t, second.User.LastSeenAt.Before(first.User.LastSeenAt))
}

func TestAuthenticatePhone_InvalidNumber(t *testing.T) {
	svc := newIdentityService()

	_, err := svc.AuthenticatePhone(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrPhoneNormalization)
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	svc := newIdentityService()
	ctx := context.Background()

	payload, err := svc.AuthenticatePhone(ctx, "+48601234567")
	require.NoError(t, err)

	user, err := svc.VerifyToken(ctx, payload.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, user.ID)
	assert.False(t, user.LastSeenAt.Before(payload.User.LastSeenAt))
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newIdentityService()

	_, err := svc.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	svc := newIdentityService()
	ctx := context.Background()

	payload, err := svc.AuthenticatePhone(ctx, "+48601234567")
	require.NoError(t, err)

	other := NewIdentityService(memory.NewStore().Users, &config.Config{
		JWTSecret:          "different-secret",
		JWTAlgorithm:       "HS256",
		JWTExpiresDays:     30,
		PhoneHashSecret:    "test-phone-secret",
		PhoneDefaultRegion: "PL",
	})
	_, err = other.VerifyToken(ctx, payload.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_MissingSubject(t *testing.T) {
	svc := newIdentityService()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_WrongAlgorithm(t *testing.T) {
	svc := newIdentityService()

	token := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"sub": "some-user",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"tv":  1,
	})
	signed, err := token.SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_VersionMismatch(t *testing.T) {
	svc := newIdentityService()
	ctx := context.Background()

	payload, err := svc.AuthenticatePhone(ctx, "+48601234567")
	require.NoError(t, err)

	rotated, err := svc.BumpTokenVersion(ctx, payload.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.TokenVersion)

	_, err = svc.VerifyToken(ctx, payload.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Re-authenticating issues a token for the new version.
	fresh, err := svc.AuthenticatePhone(ctx, "+48601234567")
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, fresh.AccessToken)
	assert.NoError(t, err)
}

func TestBumpTokenVersion_UnknownUser(t *testing.T) {
	svc := newIdentityService()

	_, err := svc.BumpTokenVersion(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdjustReputation(t *testing.T) {
	svc := newIdentityService()
	ctx := context.Background()

	payload, err := svc.AuthenticatePhone(ctx, "+48601234567")
	require.NoError(t, err)

	user, err := svc.AdjustReputation(ctx, payload.User.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, user.Reputation)

	user, err = svc.AdjustReputation(ctx, payload.User.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, -2, user.Reputation)

	_, err = svc.AdjustReputation(ctx, "no-such-user", 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
