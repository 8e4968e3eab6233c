package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nyaruka/phonenumbers"

	"github.com/fieldsignal/incident-backend/internal/config"
	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

var (
	ErrPhoneNormalization = errors.New("phone number cannot be normalized")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

// IdentityService handles phone-based identity: normalization, hashing,
// user lifecycle, JWT issuance and verification, reputation and token
// version changes.
type IdentityService struct {
	users storage.UserRepository
	cfg   *config.Config
}

func NewIdentityService(users storage.UserRepository, cfg *config.Config) *IdentityService {
	return &IdentityService{users: users, cfg: cfg}
}

// NormalizePhone parses the raw input against the configured default region
// and returns the E.164 representation.
func (s *IdentityService) NormalizePhone(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(raw, s.cfg.PhoneDefaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPhoneNormalization, err)
	}
	if !phonenumbers.IsPossibleNumber(parsed) {
		return "", fmt.Errorf("%w: not a possible number for region %s", ErrPhoneNormalization, s.cfg.PhoneDefaultRegion)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// HashPhone returns the hex HMAC-SHA256 digest of the normalized phone
// number under the server-side secret. Deterministic, used as the user ID.
func (s *IdentityService) HashPhone(normalized string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.PhoneHashSecret))
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthenticatePhone creates or touches the user for the given phone number
// and issues a signed token.
func (s *IdentityService) AuthenticatePhone(ctx context.Context, rawPhone string) (*dto.AuthPayload, error) {
	normalized, err := s.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	phoneHash := s.HashPhone(normalized)
	issuedAt := time.Now().UTC()

	user, err := s.users.Get(ctx, phoneHash)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		user, err = s.users.Create(ctx, phoneHash, phoneHash, issuedAt)
	case err == nil:
		user, err = s.users.TouchLastSeen(ctx, phoneHash, issuedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	token, expiresAt, err := s.signToken(user, issuedAt)
	if err != nil {
		return nil, err
	}

	return &dto.AuthPayload{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        *user,
	}, nil
}

func (s *IdentityService) signToken(user *models.AppUser, issuedAt time.Time) (string, time.Time, error) {
	method := jwt.GetSigningMethod(s.cfg.JWTAlgorithm)
	if method == nil {
		return "", time.Time{}, fmt.Errorf("unknown JWT algorithm %q", s.cfg.JWTAlgorithm)
	}

	expiresAt := issuedAt.Add(time.Duration(s.cfg.JWTExpiresDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": user.ID,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
		"tv":  user.TokenVersion,
	}

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken validates the token signature and claims, checks the stored
// token version and refreshes the user's last-seen timestamp.
func (s *IdentityService) VerifyToken(ctx context.Context, tokenString string) (*models.AppUser, error) {
	parsed, err := jwt.Parse(tokenString,
		func(*jwt.Token) (interface{}, error) { return []byte(s.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{s.cfg.JWTAlgorithm}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: token validation failed", ErrTokenInvalid)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: token missing subject claim", ErrTokenInvalid)
	}
	if _, ok := claims["iat"]; !ok {
		return nil, fmt.Errorf("%w: token missing issued-at claim", ErrTokenInvalid)
	}

	tokenVersion := 1
	if tv, ok := claims["tv"].(float64); ok {
		tokenVersion = int(tv)
	}

	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found for provided token", ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.TokenVersion != tokenVersion {
		return nil, fmt.Errorf("%w: token version no longer valid", ErrTokenInvalid)
	}

	refreshed, err := s.users.TouchLastSeen(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to refresh last-seen: %w", err)
	}
	return refreshed, nil
}

// AdjustReputation applies a signed delta to the user's reputation score.
func (s *IdentityService) AdjustReputation(ctx context.Context, userID string, delta int) (*models.AppUser, error) {
	user, err := s.users.AdjustReputation(ctx, userID, delta)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// BumpTokenVersion increments the user's token version, invalidating every
// previously issued token.
func (s *IdentityService) BumpTokenVersion(ctx context.Context, userID string) (*models.AppUser, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.users.SetTokenVersion(ctx, userID, user.TokenVersion+1)
}

// GetUsersMap returns the known users among the given IDs, indexed by ID.
func (s *IdentityService) GetUsersMap(ctx context.Context, userIDs []string) (map[string]*models.AppUser, error) {
	return s.users.GetMany(ctx, userIDs)
}
