package models

import "time"

// ReportStatusValue is the supervisor-assigned moderation state.
type ReportStatusValue string

const (
	StatusPending  ReportStatusValue = "pending"
	StatusApproved ReportStatusValue = "approved"
	StatusInvalid  ReportStatusValue = "invalid"
)

func (v ReportStatusValue) Valid() bool {
	switch v {
	case StatusPending, StatusApproved, StatusInvalid:
		return true
	}
	return false
}

// ReputationScore is the reputation weight a status contributes to the
// report owner. Transitions apply the delta between new and old weights.
func (v ReportStatusValue) ReputationScore() int {
	switch v {
	case StatusApproved:
		return 1
	case StatusInvalid:
		return -1
	}
	return 0
}

// ReportStatus is the latest moderation state of a report, keyed by report
// ID (one document per report, replaced on every moderation action).
type ReportStatus struct {
	ReportID  string            `json:"report_id"`
	Status    ReportStatusValue `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
	UpdatedBy *string           `json:"updated_by,omitempty"`
}
