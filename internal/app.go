// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "referral-tracker/internal/api"
	"referral-tracker/internal/api/handler"
	"referral-tracker/internal/config"
	"referral-tracker/internal/repository"
	"referral-tracker/internal/repository/postgres"
	"referral-tracker/internal/repository/sqlite"
	"referral-tracker/internal/service"
	"referral-tracker/internal/telemetry"
	"referral-tracker/internal/util"
	"referral-tracker/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // Single shared store handle, opened once and closed in Shutdown

	// Repositories
	UserRepository repository.UserRepository

	// Services
	ReferralService service.ReferralService

	// HTTP API
	HTTPHandler http.Handler

	shutdownTelemetry func(context.Context) error
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		// Logger is not configured yet; fall back to the default so main can report the failure
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.Log.Level, cfg.Log.Format)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "db_driver", cfg.DBDriver)

	// 3. Tracing (no-op unless an OTLP endpoint is configured)
	app.shutdownTelemetry, err = telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}

	// 4. Connect to Database and pick the matching repository
	switch cfg.DBDriver {
	case config.DriverPostgres:
		app.DB, err = db.NewPostgresDB(cfg.DB)
		app.UserRepository = postgres.NewUserRepository()
	default:
		app.DB, err = db.NewSQLiteDB(cfg.SQLite)
		app.UserRepository = sqlite.NewUserRepository()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Logger.Info("Database connection established.")

	// 5. Ensure Schema
	if err := app.UserRepository.EnsureSchema(ctx, app.DB); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	app.Logger.Info("Schema ensured.")

	// 6. Initialize Services
	app.ReferralService = service.NewReferralService(app.DB, app.UserRepository)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	referralHandler := handler.NewReferralHandler(app.ReferralService, app.Logger)
	app.HTTPHandler = router.NewRouter(referralHandler, app.DB, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.shutdownTelemetry != nil {
		if err := app.shutdownTelemetry(ctx); err != nil {
			app.Logger.Warn("Failed to flush traces", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
