package logging

import (
	"context"
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
// Called before the storage layer exists; SetupWithStore upgrades the
// logger once a store handler is available.
func Setup(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// SetupWithStore fans log records out to stdout JSON and the store-backed
// handler.
func SetupWithStore(debug bool, store *StoreHandler) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(&teeHandler{targets: []slog.Handler{stdout, store}}))
}

// teeHandler forwards each record to every target that accepts its level.
type teeHandler struct {
	targets []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.targets {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range t.targets {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(t.targets))
	for i, h := range t.targets {
		targets[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{targets: targets}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(t.targets))
	for i, h := range t.targets {
		targets[i] = h.WithGroup(name)
	}
	return &teeHandler{targets: targets}
}
