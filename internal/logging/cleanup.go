package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldsignal/incident-backend/internal/storage"
)

// StartCleanup runs a daily goroutine that deletes system log entries
// older than the retention window.
func StartCleanup(logs storage.LogRepository, retentionDays int, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				deleted, err := logs.DeleteOlderThan(ctx, cutoff)
				cancel()
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
