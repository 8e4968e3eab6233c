package firestore

import (
	"context"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/genproto/googleapis/type/latlng"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type reportRepository struct {
	col *fs.CollectionRef
}

func toLatLng(g *models.GeoPoint) *latlng.LatLng {
	if g == nil {
		return nil
	}
	return &latlng.LatLng{Latitude: g.Latitude, Longitude: g.Longitude}
}

func fromLatLng(v interface{}) *models.GeoPoint {
	if ll, ok := v.(*latlng.LatLng); ok && ll != nil {
		return &models.GeoPoint{Latitude: ll.GetLatitude(), Longitude: ll.GetLongitude()}
	}
	return nil
}

func snapshotToReport(snap *fs.DocumentSnapshot) models.Report {
	data := snap.Data()
	report := models.Report{
		ID:         snap.Ref.ID,
		Type:       asString(data["type"]),
		GeoPoint:   fromLatLng(data["geo_point"]),
		ReporterID: asStringPtr(data["reporter_id"]),
		CreatedAt:  asTime(data["created_at"], time.Now().UTC()),
	}
	if payload, ok := data["data"].(map[string]interface{}); ok {
		report.Data = payload
	} else {
		report.Data = map[string]interface{}{}
	}
	if updated, ok := data["updated_at"].(time.Time); ok {
		report.UpdatedAt = &updated
	}
	return report
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	ref := r.col.NewDoc()
	doc := map[string]interface{}{
		"type":       report.Type,
		"data":       report.Data,
		"geo_point":  toLatLng(report.GeoPoint),
		"created_at": fs.ServerTimestamp,
		"updated_at": fs.ServerTimestamp,
	}
	if report.ReporterID != nil {
		doc["reporter_id"] = *report.ReporterID
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	stored := snapshotToReport(snap)
	return &stored, nil
}

func (r *reportRepository) List(ctx context.Context) ([]models.Report, error) {
	iter := r.col.OrderBy("created_at", fs.Desc).Documents(ctx)
	defer iter.Stop()

	var reports []models.Report
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		reports = append(reports, snapshotToReport(snap))
	}
	return reports, nil
}

func (r *reportRepository) Get(ctx context.Context, reportID string) (*models.Report, error) {
	snap, err := r.col.Doc(reportID).Get(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	report := snapshotToReport(snap)
	return &report, nil
}
