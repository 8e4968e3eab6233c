package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

var ErrStatusNotFound = errors.New("report status not found")

// StatusService applies supervisor moderation decisions and reconciles the
// owning user's reputation.
type StatusService struct {
	statuses storage.StatusRepository
	reports  storage.ReportRepository
	identity *IdentityService
}

func NewStatusService(statuses storage.StatusRepository, reports storage.ReportRepository, identity *IdentityService) *StatusService {
	return &StatusService{statuses: statuses, reports: reports, identity: identity}
}

// SetStatus upserts the moderation status for a report and adjusts the
// owner's reputation by the delta between the new and previous status
// weights. The status write happens first; a failed reputation write is
// not rolled back.
func (s *StatusService) SetStatus(ctx context.Context, reportID string, status models.ReportStatusValue, supervisorID *string) (*models.ReportStatus, error) {
	report, err := s.reports.Get(ctx, reportID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}
	if err != nil {
		return nil, err
	}

	previousScore := models.StatusPending.ReputationScore()
	previous, err := s.statuses.Get(ctx, reportID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if previous != nil {
		previousScore = previous.Status.ReputationScore()
	}

	stored, err := s.statuses.Set(ctx, &models.ReportStatus{
		ReportID:  reportID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: supervisorID,
	})
	if err != nil {
		return nil, err
	}

	delta := status.ReputationScore() - previousScore
	if delta != 0 && report.ReporterID != nil {
		if _, err := s.identity.AdjustReputation(ctx, *report.ReporterID, delta); err != nil {
			slog.Error("reputation adjustment failed after status write",
				"report_id", reportID, "user_id", *report.ReporterID, "delta", delta, "error", err)
			return nil, fmt.Errorf("failed to adjust reporter reputation: %w", err)
		}
	}

	return stored, nil
}

// GetStatus returns the latest status for a report.
func (s *StatusService) GetStatus(ctx context.Context, reportID string) (*models.ReportStatus, error) {
	status, err := s.statuses.Get(ctx, reportID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrStatusNotFound
	}
	return status, err
}

// GetStatusMap returns statuses for the given report IDs, indexed by ID.
func (s *StatusService) GetStatusMap(ctx context.Context, reportIDs []string) (map[string]*models.ReportStatus, error) {
	return s.statuses.GetMany(ctx, reportIDs)
}
