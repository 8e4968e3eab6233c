package firestore

import (
	"context"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/fieldsignal/incident-backend/internal/models"
)

type logRepository struct {
	col *fs.CollectionRef
}

func (r *logRepository) InsertBatch(ctx context.Context, entries []models.SystemLog) error {
	for _, entry := range entries {
		doc := map[string]interface{}{
			"timestamp": entry.Timestamp,
			"level":     entry.Level,
			"message":   entry.Message,
		}
		if entry.TraceID != "" {
			doc["trace_id"] = entry.TraceID
		}
		if entry.UserID != nil {
			doc["user_id"] = *entry.UserID
		}
		if entry.Action != "" {
			doc["action"] = entry.Action
		}
		if entry.Error != "" {
			doc["error"] = entry.Error
		}
		if len(entry.Extra) > 0 {
			doc["extra"] = entry.Extra
		}
		if _, err := r.col.Doc(entry.ID).Set(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *logRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	iter := r.col.Where("timestamp", "<", cutoff).Documents(ctx)
	defer iter.Stop()

	var deleted int64
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, err
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
