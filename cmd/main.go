package main

import (
	"context"
	"embed"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"campusportal/internal/auth"
	"campusportal/internal/config"
	"campusportal/internal/db"
	"campusportal/internal/migrations"
	"campusportal/internal/queue"
	"campusportal/internal/routes"
	"campusportal/internal/security"
	"campusportal/internal/store"
	"campusportal/internal/worker"
)

//go:embed migrations
var migrationFiles embed.FS

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Warning: .env file not found", "error", err)
	}

	// Postgres: users, definition audit trail, key rotation schedule
	db.InitDB()
	if err := migrations.Up(migrationFiles); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Firestore: definitions, course contexts, interaction results
	if err := config.InitFireStore(); err != nil {
		slog.Error("Failed to initialize Firestore", "error", err)
		os.Exit(1)
	}
	defer config.CloseFirebaseConnection()

	if err := store.InitDefinitionService(); err != nil {
		slog.Error("Failed to initialize definition service", "error", err)
		os.Exit(1)
	}
	if err := store.InitResultsService(); err != nil {
		slog.Error("Failed to initialize results service", "error", err)
		os.Exit(1)
	}
	if err := store.InitContextService(); err != nil {
		slog.Error("Failed to initialize context service", "error", err)
		os.Exit(1)
	}

	auth.InitSecurity()

	if err := queue.InitQueue(); err != nil {
		slog.Error("Failed to initialize task queue", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	// KMS and rotation schedule need both the database and the queue
	if err := security.InitSecurity(); err != nil {
		slog.Error("Failed to initialize security", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.NewWorker()
	go func() {
		if err := w.Start(ctx); err != nil {
			slog.Error("Worker failed", "error", err)
		}
	}()

	if _, err := queue.ScheduleRenewalSweep(time.Minute); err != nil {
		slog.Error("Failed to schedule renewal sweep", "error", err)
	}

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	api := e.Group("/api")
	routes.SetupRoutes(api)

	go func() {
		if err := e.Start(":8080"); err != nil {
			slog.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server cleanly", "error", err)
	}
}
