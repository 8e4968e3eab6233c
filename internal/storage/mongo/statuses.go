package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type statusDoc struct {
	ReportID  string    `bson:"_id"`
	Status    string    `bson:"status"`
	UpdatedAt time.Time `bson:"updated_at"`
	UpdatedBy *string   `bson:"updated_by,omitempty"`
}

func (d statusDoc) toModel() *models.ReportStatus {
	value := models.ReportStatusValue(d.Status)
	if !value.Valid() {
		value = models.StatusPending
	}
	return &models.ReportStatus{
		ReportID:  d.ReportID,
		Status:    value,
		UpdatedAt: d.UpdatedAt,
		UpdatedBy: d.UpdatedBy,
	}
}

type statusRepository struct {
	col *mongo.Collection
}

func (r *statusRepository) Set(ctx context.Context, st *models.ReportStatus) (*models.ReportStatus, error) {
	doc := statusDoc{
		ReportID:  st.ReportID,
		Status:    string(st.Status),
		UpdatedAt: st.UpdatedAt,
		UpdatedBy: st.UpdatedBy,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": st.ReportID}, doc, opts); err != nil {
		return nil, fmt.Errorf("failed to persist report status: %w", err)
	}
	return doc.toModel(), nil
}

func (r *statusRepository) Get(ctx context.Context, reportID string) (*models.ReportStatus, error) {
	var doc statusDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": reportID}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.toModel(), nil
}

func (r *statusRepository) GetMany(ctx context.Context, reportIDs []string) (map[string]*models.ReportStatus, error) {
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": reportIDs}})
	if err != nil {
		return nil, err
	}
	var docs []statusDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	statuses := make(map[string]*models.ReportStatus, len(docs))
	for _, doc := range docs {
		statuses[doc.ReportID] = doc.toModel()
	}
	return statuses, nil
}
