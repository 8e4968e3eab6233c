package dto

import "github.com/fieldsignal/incident-backend/internal/models"

type CreateReportRequest struct {
	Type     string                 `json:"type"`
	Data     map[string]interface{} `json:"data"`
	GeoPoint *models.GeoPoint       `json:"geo_point,omitempty"`
}

type UpdateStatusRequest struct {
	Status models.ReportStatusValue `json:"status"`
}
