package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/services"
)

const currentUserKey = "current_user"

// OptionalAuth resolves a bearer token when one is present. No header means
// an anonymous request; a malformed header or invalid token is rejected.
// Verification goes through the identity service so the stored token
// version is checked and the user's last-seen timestamp refreshed.
func OptionalAuth(identity *services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := extractBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return unauthorized(c, "Invalid authorization header")
		}
		if token == "" {
			return c.Next()
		}

		user, err := identity.VerifyToken(c.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrTokenInvalid) {
				return unauthorized(c, "Invalid or expired token")
			}
			return fiber.ErrInternalServerError
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// RequireAuth behaves like OptionalAuth but rejects anonymous requests.
func RequireAuth(identity *services.IdentityService) fiber.Handler {
	optional := OptionalAuth(identity)
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return unauthorized(c, "Authentication required")
		}
		return optional(c)
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *fiber.Ctx) *models.AppUser {
	user, _ := c.Locals(currentUserKey).(*models.AppUser)
	return user
}

// ReporterID returns the authenticated user's ID, or nil for anonymous
// requests.
func ReporterID(c *fiber.Ctx) *string {
	if user := CurrentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// extractBearer splits an Authorization header. An empty header yields an
// empty token; a non-bearer scheme or empty credential is an error.
func extractBearer(header string) (string, error) {
	if header == "" {
		return "", nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
