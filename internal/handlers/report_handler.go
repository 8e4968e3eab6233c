package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/middleware"
	"github.com/fieldsignal/incident-backend/internal/services"
)

type ReportHandler struct {
	reports  *services.ReportService
	statuses *services.StatusService
}

func NewReportHandler(reports *services.ReportService, statuses *services.StatusService) *ReportHandler {
	return &ReportHandler{reports: reports, statuses: statuses}
}

// Submit accepts a new report, from an authenticated or anonymous caller.
func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	report, err := h.reports.Create(c.Context(), &req, middleware.ReporterID(c))
	if err != nil {
		if errors.Is(err, services.ErrReportInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// List returns all reports for supervisors, newest first, annotated with
// current status and reporter reputation.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	reports, err := h.reports.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}
	return c.JSON(reports)
}

// UpdateStatus applies a moderation decision to a report.
func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	reportID := c.Params("id")

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if !req.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid status: must be pending, approved or invalid",
		})
	}

	supervisorID := middleware.SupervisorID(c)
	status, err := h.statuses.SetStatus(c.Context(), reportID, req.Status, &supervisorID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(status)
}

// GetStatus returns the latest moderation status of a report.
func (h *ReportHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.statuses.GetStatus(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrStatusNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Report status not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(status)
}
