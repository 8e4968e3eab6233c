package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type logDoc struct {
	ID        string                 `bson:"_id"`
	Timestamp time.Time              `bson:"timestamp"`
	Level     string                 `bson:"level"`
	Message   string                 `bson:"message"`
	TraceID   string                 `bson:"trace_id,omitempty"`
	UserID    *string                `bson:"user_id,omitempty"`
	Action    string                 `bson:"action,omitempty"`
	Error     string                 `bson:"error,omitempty"`
	Extra     map[string]interface{} `bson:"extra,omitempty"`
}

type logRepository struct {
	col *mongo.Collection
}

func (r *logRepository) InsertBatch(ctx context.Context, entries []models.SystemLog) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, entry := range entries {
		docs[i] = logDoc{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Level:     entry.Level,
			Message:   entry.Message,
			TraceID:   entry.TraceID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Error:     entry.Error,
			Extra:     entry.Extra,
		}
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *logRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.col.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
