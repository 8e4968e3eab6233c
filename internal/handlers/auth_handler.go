package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/middleware"
	"github.com/fieldsignal/incident-backend/internal/services"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// PhoneLogin normalizes and hashes the submitted phone number, creating the
// user on first contact, and returns a signed token.
func (h *AuthHandler) PhoneLogin(c *fiber.Ctx) error {
	var req dto.PhoneLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	payload, err := h.identity.AuthenticatePhone(c.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, services.ErrPhoneNormalization) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(payload)
}

// Revoke bumps the caller's token version, invalidating every token issued
// so far. The caller re-authenticates with their phone number afterwards.
func (h *AuthHandler) Revoke(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Authentication required",
		})
	}

	if _, err := h.identity.BumpTokenVersion(c.Context(), user.ID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(fiber.Map{"message": "Tokens revoked"})
}
