package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	_ "github.com/harborpoint/fund_backoffice_app/cmd/docs"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/core/services"
	"github.com/harborpoint/fund_backoffice_app/internal/handlers"
	"github.com/harborpoint/fund_backoffice_app/internal/middleware"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/config"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/email"
	"github.com/harborpoint/fund_backoffice_app/internal/platform/scheduler"
	"github.com/harborpoint/fund_backoffice_app/internal/repositories/database/pgsql"
	"github.com/harborpoint/fund_backoffice_app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Fund Back Office API
// @version 1.0
// @description Back-office ledger for a managed investment fund.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	registerCustomValidators(logger)

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	svcContainer := buildServices(cfg, repos, logger)

	handlers.RegisterRoutes(r, cfg, svcContainer)

	sched, err := scheduler.New(cfg.BatchCron, svcContainer.Statement, logger)
	if err != nil {
		logger.Error("Failed to configure statement scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, repos *portsrepo.RepositoryProvider, logger *slog.Logger) *portssvc.ServiceContainer {
	var sender email.Sender = email.NopSender{}
	if cfg.EmailProviderURL != "" {
		sender = email.NewHTTPSender(cfg.EmailProviderURL, cfg.EmailAPIKey, cfg.EmailFrom)
		logger.Info("Outbound email enabled", slog.String("provider", cfg.EmailProviderURL))
	} else {
		logger.Warn("No email provider configured, outbound email disabled")
	}
	return services.NewServiceContainer(cfg, repos, sender)
}

// registerCustomValidators adds the "month" rule used by binding tags.
func registerCustomValidators(logger *slog.Logger) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		logger.Error("Unexpected validator engine, month rule not registered")
		return
	}
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		m := fl.Field().Int()
		return m >= 1 && m <= 12
	})
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}
	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
