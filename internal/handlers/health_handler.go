package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

type HealthHandler struct {
	store *storage.Store
}

func NewHealthHandler(store *storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.store.Ping(c.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
