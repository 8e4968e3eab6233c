package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/fieldsignal/incident-backend/internal/config"
	"github.com/fieldsignal/incident-backend/internal/dto"
	"github.com/fieldsignal/incident-backend/internal/handlers"
	"github.com/fieldsignal/incident-backend/internal/logging"
	"github.com/fieldsignal/incident-backend/internal/middleware"
	"github.com/fieldsignal/incident-backend/internal/routes"
	"github.com/fieldsignal/incident-backend/internal/services"
	"github.com/fieldsignal/incident-backend/internal/storage"

	// Storage backends register themselves with storage.Open.
	_ "github.com/fieldsignal/incident-backend/internal/storage/firestore"
	_ "github.com/fieldsignal/incident-backend/internal/storage/memory"
	_ "github.com/fieldsignal/incident-backend/internal/storage/mongo"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.Debug)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.PhoneHashSecret == "" {
		slog.Error("PHONE_HASH_SECRET environment variable is required")
		os.Exit(1)
	}

	// Document store
	store, err := storage.Open(context.Background(), storage.Options{
		Backend:                  cfg.StorageBackend,
		FirestoreProjectID:       cfg.FirestoreProjectID,
		FirestoreCredentialsFile: cfg.FirestoreCredentialsFile,
		MongoURI:                 cfg.MongoURI,
		MongoDatabase:            cfg.MongoDatabase,
		UsersCollection:          cfg.UsersCollection,
		ReportsCollection:        cfg.ReportsCollection,
		ReportStatusCollection:   cfg.ReportStatusCollection,
		SystemLogsCollection:     cfg.SystemLogsCollection,
	})
	if err != nil {
		slog.Error("storage connection failed", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("storage connected", "backend", cfg.StorageBackend)

	// Store-backed log handler (ERROR+ async batch) and retention cleanup
	storeLogHandler := logging.NewStoreHandler(store.Logs)
	logging.SetupWithStore(cfg.Debug, storeLogHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(store.Logs, cfg.LogRetentionDays, cleanupDone)

	// Services
	identityService := services.NewIdentityService(store.Users, cfg)
	reportService := services.NewReportService(store.Reports, store.Statuses, identityService)
	statusService := services.NewStatusService(store.Statuses, store.Reports, identityService)

	// Handlers
	authHandler := handlers.NewAuthHandler(identityService)
	reportHandler := handlers.NewReportHandler(reportService, statusService)
	healthHandler := handlers.NewHealthHandler(store)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, cfg, identityService, authHandler, reportHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "app", cfg.AppName)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	storeLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Close(shutdownCtx); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
