package dto

import (
	"time"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type PhoneLoginRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// AuthPayload is returned after successful phone authentication. Not
// persisted anywhere.
type AuthPayload struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        models.AppUser `json:"user"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
