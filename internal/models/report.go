package models

import "time"

// GeoPoint is an optional report location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports latitude/longitude within WGS84 bounds.
func (g GeoPoint) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// Report is a user-submitted incident. Immutable after creation; the
// Status and ReporterReputation fields are joined in from other
// collections when listing.
type Report struct {
	ID                 string                 `json:"id"`
	Type               string                 `json:"type"`
	Data               map[string]interface{} `json:"data"`
	GeoPoint           *GeoPoint              `json:"geo_point,omitempty"`
	ReporterID         *string                `json:"user_id,omitempty"`
	Status             *ReportStatus          `json:"status,omitempty"`
	ReporterReputation *int                   `json:"user_reputation,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          *time.Time             `json:"updated_at,omitempty"`
}
