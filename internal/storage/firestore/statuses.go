package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"

	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

type statusRepository struct {
	col *fs.CollectionRef
}

func snapshotToStatus(snap *fs.DocumentSnapshot, fallback time.Time) *models.ReportStatus {
	data := snap.Data()
	value := models.ReportStatusValue(asString(data["status"]))
	if !value.Valid() {
		value = models.StatusPending
	}
	return &models.ReportStatus{
		ReportID:  snap.Ref.ID,
		Status:    value,
		UpdatedAt: asTime(data["updated_at"], fallback),
		UpdatedBy: asStringPtr(data["updated_by"]),
	}
}

func (r *statusRepository) Set(ctx context.Context, st *models.ReportStatus) (*models.ReportStatus, error) {
	ref := r.col.Doc(st.ReportID)
	doc := map[string]interface{}{
		"status":     string(st.Status),
		"updated_at": st.UpdatedAt,
	}
	if st.UpdatedBy != nil {
		doc["updated_by"] = *st.UpdatedBy
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to persist report status: %w", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return snapshotToStatus(snap, st.UpdatedAt), nil
}

func (r *statusRepository) Get(ctx context.Context, reportID string) (*models.ReportStatus, error) {
	snap, err := r.col.Doc(reportID).Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return snapshotToStatus(snap, time.Now().UTC()), nil
}

func (r *statusRepository) GetMany(ctx context.Context, reportIDs []string) (map[string]*models.ReportStatus, error) {
	statuses := make(map[string]*models.ReportStatus, len(reportIDs))
	for _, id := range reportIDs {
		st, err := r.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		statuses[id] = st
	}
	return statuses, nil
}
