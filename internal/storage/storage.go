package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldsignal/incident-backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrUnsupportedBackend is returned by Open for unknown backend names.
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
)

// UserRepository persists application users keyed by their phone-hash ID.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*models.AppUser, error)
	GetMany(ctx context.Context, userIDs []string) (map[string]*models.AppUser, error)
	Create(ctx context.Context, userID, phoneHash string, now time.Time) (*models.AppUser, error)
	TouchLastSeen(ctx context.Context, userID string, now time.Time) (*models.AppUser, error)
	AdjustReputation(ctx context.Context, userID string, delta int) (*models.AppUser, error)
	SetTokenVersion(ctx context.Context, userID string, version int) (*models.AppUser, error)
}

// ReportRepository persists submitted reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	// List returns all reports ordered by creation time, newest first.
	List(ctx context.Context) ([]models.Report, error)
	Get(ctx context.Context, reportID string) (*models.Report, error)
}

// StatusRepository persists moderation statuses, one document per report.
type StatusRepository interface {
	// Set creates or replaces the status document for status.ReportID.
	Set(ctx context.Context, status *models.ReportStatus) (*models.ReportStatus, error)
	Get(ctx context.Context, reportID string) (*models.ReportStatus, error)
	GetMany(ctx context.Context, reportIDs []string) (map[string]*models.ReportStatus, error)
}

// LogRepository is the sink for the store-backed slog handler.
type LogRepository interface {
	InsertBatch(ctx context.Context, entries []models.SystemLog) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles the repositories backed by a single document store.
type Store struct {
	Users    UserRepository
	Reports  ReportRepository
	Statuses StatusRepository
	Logs     LogRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// NewStore assembles a Store from repository implementations. The ping and
// close hooks may be nil for backends without a connection to check.
func NewStore(users UserRepository, reports ReportRepository, statuses StatusRepository, logs LogRepository,
	ping, closeFn func(ctx context.Context) error) *Store {
	return &Store{
		Users:    users,
		Reports:  reports,
		Statuses: statuses,
		Logs:     logs,
		ping:     ping,
		close:    closeFn,
	}
}

// Ping verifies connectivity to the underlying store.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the underlying client, if any.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Options carries the backend-agnostic settings repositories need.
type Options struct {
	Backend string

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	MongoURI      string
	MongoDatabase string

	UsersCollection        string
	ReportsCollection      string
	ReportStatusCollection string
	SystemLogsCollection   string
}

// openFunc is registered by each backend package via Register.
type openFunc func(ctx context.Context, opts Options) (*Store, error)

var backends = map[string]openFunc{}

// Register makes a backend available to Open. Called from backend package
// init functions.
func Register(name string, open openFunc) {
	backends[name] = open
}

// Open constructs the Store for the configured backend.
func Open(ctx context.Context, opts Options) (*Store, error) {
	open, ok := backends[opts.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, opts.Backend)
	}
	return open(ctx, opts)
}
