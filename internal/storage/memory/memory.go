// Package memory implements the storage repositories in process memory.
// It backs the "memory" backend for local development and is the store the
// unit tests run against.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

func init() {
	storage.Register("memory", func(context.Context, storage.Options) (*storage.Store, error) {
		return NewStore(), nil
	})
}

// NewStore returns an empty in-memory store.
func NewStore() *storage.Store {
	return storage.NewStore(
		&userRepository{users: map[string]models.AppUser{}},
		&reportRepository{reports: map[string]models.Report{}},
		&statusRepository{statuses: map[string]models.ReportStatus{}},
		&logRepository{},
		nil,
		nil,
	)
}

type userRepository struct {
	mu    sync.RWMutex
	users map[string]models.AppUser
}

func (r *userRepository) Get(_ context.Context, userID string) (*models.AppUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) GetMany(_ context.Context, userIDs []string) (map[string]*models.AppUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make(map[string]*models.AppUser, len(userIDs))
	for _, id := range userIDs {
		if user, ok := r.users[id]; ok {
			u := user
			users[id] = &u
		}
	}
	return users, nil
}

func (r *userRepository) Create(_ context.Context, userID, phoneHash string, now time.Time) (*models.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := models.AppUser{
		ID:           userID,
		PhoneHash:    phoneHash,
		Reputation:   0,
		CreatedAt:    now,
		LastSeenAt:   now,
		TokenVersion: 1,
	}
	r.users[userID] = user
	return &user, nil
}

func (r *userRepository) TouchLastSeen(_ context.Context, userID string, now time.Time) (*models.AppUser, error) {
	return r.mutate(userID, func(u *models.AppUser) { u.LastSeenAt = now })
}

func (r *userRepository) AdjustReputation(_ context.Context, userID string, delta int) (*models.AppUser, error) {
	return r.mutate(userID, func(u *models.AppUser) { u.Reputation += delta })
}

func (r *userRepository) SetTokenVersion(_ context.Context, userID string, version int) (*models.AppUser, error) {
	return r.mutate(userID, func(u *models.AppUser) { u.TokenVersion = version })
}

func (r *userRepository) mutate(userID string, fn func(*models.AppUser)) (*models.AppUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	fn(&user)
	r.users[userID] = user
	return &user, nil
}

type reportRepository struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

func (r *reportRepository) Create(_ context.Context, report *models.Report) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *report
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	updated := stored.CreatedAt
	stored.UpdatedAt = &updated
	if stored.Data == nil {
		stored.Data = map[string]interface{}{}
	}
	r.reports[stored.ID] = stored
	return &stored, nil
}

func (r *reportRepository) List(_ context.Context) ([]models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reports := make([]models.Report, 0, len(r.reports))
	for _, report := range r.reports {
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (r *reportRepository) Get(_ context.Context, reportID string) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[reportID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &report, nil
}

type statusRepository struct {
	mu       sync.RWMutex
	statuses map[string]models.ReportStatus
}

func (r *statusRepository) Set(_ context.Context, st *models.ReportStatus) (*models.ReportStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *st
	r.statuses[st.ReportID] = stored
	return &stored, nil
}

func (r *statusRepository) Get(_ context.Context, reportID string) (*models.ReportStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.statuses[reportID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &st, nil
}

func (r *statusRepository) GetMany(_ context.Context, reportIDs []string) (map[string]*models.ReportStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make(map[string]*models.ReportStatus, len(reportIDs))
	for _, id := range reportIDs {
		if st, ok := r.statuses[id]; ok {
			s := st
			statuses[id] = &s
		}
	}
	return statuses, nil
}

type logRepository struct {
	mu      sync.Mutex
	entries []models.SystemLog
}

func (r *logRepository) InsertBatch(_ context.Context, entries []models.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *logRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var deleted int64
	for _, entry := range r.entries {
		if entry.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return deleted, nil
}
