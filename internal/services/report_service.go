package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

var (
	ErrReportInvalid  = errors.New("invalid report payload")
	ErrReportNotFound = errors.New("report not found")
)

// ReportService handles report submission and the supervisor listing,
// including the status and reporter-reputation join.
type ReportService struct {
	reports  storage.ReportRepository
	statuses storage.StatusRepository
	identity *IdentityService
}

func NewReportService(reports storage.ReportRepository, statuses storage.StatusRepository, identity *IdentityService) *ReportService {
	return &ReportService{reports: reports, statuses: statuses, identity: identity}
}

// Create validates and persists a new report. reporterID is nil for
// anonymous submissions.
func (s *ReportService) Create(ctx context.Context, req *dto.CreateReportRequest, reporterID *string) (*models.Report, error) {
	if strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("%w: type is required", ErrReportInvalid)
	}
	if req.GeoPoint != nil && !req.GeoPoint.Valid() {
		return nil, fmt.Errorf("%w: geo point out of bounds", ErrReportInvalid)
	}

	data := req.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	return s.reports.Create(ctx, &models.Report{
		Type:       req.Type,
		Data:       data,
		GeoPoint:   req.GeoPoint,
		ReporterID: reporterID,
	})
}

// List returns all reports newest-first, each annotated with its current
// moderation status and the reporter's reputation where known.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return []models.Report{}, nil
	}

	reportIDs := make([]string, len(reports))
	userIDSet := map[string]struct{}{}
	for i, report := range reports {
		reportIDs[i] = report.ID
		if report.ReporterID != nil {
			userIDSet[*report.ReporterID] = struct{}{}
		}
	}

	statusMap, err := s.statuses.GetMany(ctx, reportIDs)
	if err != nil {
		return nil, err
	}

	var usersMap map[string]*models.AppUser
	if len(userIDSet) > 0 {
		userIDs := make([]string, 0, len(userIDSet))
		for id := range userIDSet {
			userIDs = append(userIDs, id)
		}
		usersMap, err = s.identity.GetUsersMap(ctx, userIDs)
		if err != nil {
			return nil, err
		}
	}

	for i := range reports {
		reports[i].Status = statusMap[reports[i].ID]
		if reports[i].ReporterID != nil {
			if user, ok := usersMap[*reports[i].ReporterID]; ok {
				reputation := user.Reputation
				reports[i].ReporterReputation = &reputation
			}
		}
	}
	return reports, nil
}

// Get returns a single report by ID.
func (s *ReportService) Get(ctx context.Context, reportID string) (*models.Report, error) {
	report, err := s.reports.Get(ctx, reportID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	return report, err
}
