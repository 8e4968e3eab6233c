// Package mongo implements the storage repositories on MongoDB, for
// deployments that cannot use Firestore.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldsignal/incident-backend/internal/storage"
)

func init() {
	storage.Register("mongo", Open)
}

// Open connects to MongoDB and wires the repositories onto it.
func Open(ctx context.Context, opts storage.Options) (*storage.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.MongoURI).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	db := client.Database(opts.MongoDatabase)

	return storage.NewStore(
		&userRepository{col: db.Collection(opts.UsersCollection)},
		&reportRepository{col: db.Collection(opts.ReportsCollection)},
		&statusRepository{col: db.Collection(opts.ReportStatusCollection)},
		&logRepository{col: db.Collection(opts.SystemLogsCollection)},
		func(ctx context.Context) error { return client.Ping(ctx, nil) },
		func(ctx context.Context) error { return client.Disconnect(ctx) },
	), nil
}

// notFound maps the driver's no-documents error onto the storage sentinel.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}
