// Package firestore implements the storage repositories on Google Cloud
// Firestore, the store the production deployment runs against.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fieldsignal/incident-backend/internal/storage"
)

func init() {
	storage.Register("firestore", Open)
}

// Open connects to Firestore and wires the repositories onto it.
func Open(ctx context.Context, opts storage.Options) (*storage.Store, error) {
	if opts.FirestoreProjectID == "" {
		return nil, errors.New("firestore backend requires FIRESTORE_PROJECT_ID")
	}

	var clientOpts []option.ClientOption
	if opts.FirestoreCredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.FirestoreCredentialsFile))
	}

	client, err := fs.NewClient(ctx, opts.FirestoreProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return storage.NewStore(
		&userRepository{col: client.Collection(opts.UsersCollection)},
		&reportRepository{col: client.Collection(opts.ReportsCollection)},
		&statusRepository{col: client.Collection(opts.ReportStatusCollection)},
		&logRepository{col: client.Collection(opts.SystemLogsCollection)},
		func(ctx context.Context) error {
			// Firestore has no ping RPC; a bounded read on the users
			// collection stands in for one.
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_, err := client.Collection(opts.UsersCollection).Limit(1).Documents(ctx).GetAll()
			return err
		},
		func(context.Context) error { return client.Close() },
	), nil
}

// notFound maps Firestore's gRPC NotFound onto the storage sentinel.
func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return storage.ErrNotFound
	}
	return err
}

func asTime(v interface{}, fallback time.Time) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return fallback
}

func asInt(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return fallback
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStringPtr(v interface{}) *string {
	if s, ok := v.(string); ok && s != "" {
		return &s
	}
	return nil
}
