package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsignal/incident-backend/internal/models"
	"github.com/fieldsignal/incident-backend/internal/storage"
)

func TestUserLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Users.Get(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	created, err := store.Users.Create(ctx, "u1", "hash-1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, created.TokenVersion)
	assert.Equal(t, 0, created.Reputation)

	later := now.Add(time.Minute)
	touched, err := store.Users.TouchLastSeen(ctx, "u1", later)
	require.NoError(t, err)
	assert.Equal(t, later, touched.LastSeenAt)
	assert.Equal(t, now, touched.CreatedAt)

	adjusted, err := store.Users.AdjustReputation(ctx, "u1", -2)
	require.NoError(t, err)
	assert.Equal(t, -2, adjusted.Reputation)

	rotated, err := store.Users.SetTokenVersion(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, rotated.TokenVersion)

	_, err = store.Users.TouchLastSeen(ctx, "missing", later)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportListOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Reports.Create(ctx, &models.Report{Type: "incident"})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	reports, err := store.Reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.True(t, reports[0].CreatedAt.After(reports[1].CreatedAt))
	assert.True(t, reports[1].CreatedAt.After(reports[2].CreatedAt))
}

func TestStatusUpsert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Statuses.Get(ctx, "r1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	supervisor := "sup-1"
	_, err = store.Statuses.Set(ctx, &models.ReportStatus{
		ReportID: "r1", Status: models.StatusApproved, UpdatedAt: time.Now().UTC(), UpdatedBy: &supervisor,
	})
	require.NoError(t, err)

	_, err = store.Statuses.Set(ctx, &models.ReportStatus{
		ReportID: "r1", Status: models.StatusInvalid, UpdatedAt: time.Now().UTC(), UpdatedBy: &supervisor,
	})
	require.NoError(t, err)

	st, err := store.Statuses.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvalid, st.Status)
}

func TestLogRetention(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.Logs.InsertBatch(ctx, []models.SystemLog{
		{ID: "1", Timestamp: now.AddDate(0, 0, -40), Level: "ERROR", Message: "old"},
		{ID: "2", Timestamp: now, Level: "ERROR", Message: "recent"},
	})
	require.NoError(t, err)

	deleted, err := store.Logs.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestOpenRegisteredBackend(t *testing.T) {
	store, err := storage.Open(context.Background(), storage.Options{Backend: "memory"})
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))

	_, err = storage.Open(context.Background(), storage.Options{Backend: "cassandra"})
	assert.ErrorIs(t, err, storage.ErrUnsupportedBackend)
}
