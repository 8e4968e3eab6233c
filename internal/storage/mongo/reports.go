package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type geoDoc struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}

type reportDoc struct {
	ID         string                 `bson:"_id"`
	Type       string                 `bson:"type"`
	Data       map[string]interface{} `bson:"data"`
	GeoPoint   *geoDoc                `bson:"geo_point,omitempty"`
	ReporterID *string                `bson:"reporter_id,omitempty"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
}

func (d reportDoc) toModel() models.Report {
	report := models.Report{
		ID:         d.ID,
		Type:       d.Type,
		Data:       d.Data,
		ReporterID: d.ReporterID,
		CreatedAt:  d.CreatedAt,
	}
	if report.Data == nil {
		report.Data = map[string]interface{}{}
	}
	if d.GeoPoint != nil {
		report.GeoPoint = &models.GeoPoint{Latitude: d.GeoPoint.Latitude, Longitude: d.GeoPoint.Longitude}
	}
	if !d.UpdatedAt.IsZero() {
		updated := d.UpdatedAt
		report.UpdatedAt = &updated
	}
	return report
}

type reportRepository struct {
	col *mongo.Collection
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	now := time.Now().UTC()
	doc := reportDoc{
		ID:         uuid.NewString(),
		Type:       report.Type,
		Data:       report.Data,
		ReporterID: report.ReporterID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if report.GeoPoint != nil {
		doc.GeoPoint = &geoDoc{Latitude: report.GeoPoint.Latitude, Longitude: report.GeoPoint.Longitude}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}
	stored := doc.toModel()
	return &stored, nil
}

func (r *reportRepository) List(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var docs []reportDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	reports := make([]models.Report, len(docs))
	for i, doc := range docs {
		reports[i] = doc.toModel()
	}
	return reports, nil
}

func (r *reportRepository) Get(ctx context.Context, reportID string) (*models.Report, error) {
	var doc reportDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": reportID}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	report := doc.toModel()
	return &report, nil
}
