package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/config"
	"github.com/tasktrackhq/tasktrack-api/internal/events"
	"github.com/tasktrackhq/tasktrack-api/internal/jobs"
	"github.com/tasktrackhq/tasktrack-api/internal/notification"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/postgres"
	"github.com/tasktrackhq/tasktrack-api/internal/service"
	"github.com/tasktrackhq/tasktrack-api/internal/service/auth"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore    store.UserStore
	projectStore store.ProjectStore
	taskStore    store.TaskStore

	// Service interfaces
	jwtService     auth.JWTService
	authService    service.AuthService
	projectService service.ProjectService
	taskService    service.TaskService

	// Event system and background processing
	eventEmitter events.EventEmitter
	jobRunner    *jobs.Runner
	mailer       mailer.Mailer
	scheduler    *notification.SummaryScheduler
}

// newApplication creates a new application instance with all
// dependencies initialized. It accepts core dependencies like
// configuration, logger, and database connection that must be
// established before application initialization. Background workers are
// not started here; Run does that.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.projectStore = postgres.NewPostgresProjectStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Outbound mail transport. With SMTP disabled, messages are logged
	// instead of sent, which keeps development and tests offline.
	if cfg.SMTP.Enabled {
		app.mailer = mailer.NewSMTPMailer(cfg.SMTP, logger)
		logger.Info("SMTP mailer initialized", "host", cfg.SMTP.Host, "from", cfg.SMTP.From)
	} else {
		app.mailer = mailer.NewLogMailer(logger)
		logger.Info("SMTP disabled, emails will be logged only")
	}

	retryPolicy := notification.RetryPolicy{
		MaxAttempts: cfg.Notify.MaxAttempts,
		Base:        time.Duration(cfg.Notify.BackoffBaseSeconds) * time.Second,
	}

	emailJobFactory, err := notification.NewEmailJobFactory(
		app.taskStore,
		app.userStore,
		app.projectStore,
		app.mailer,
		retryPolicy,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create email job factory: %w", err)
	}

	// The registry lets the job store rebuild executable jobs from rows
	// recovered after a restart.
	registry := jobs.NewRegistry()
	emailJobFactory.RegisterJobTypes(registry)

	jobStore := postgres.NewPostgresJobStore(db, registry)
	app.jobRunner = jobs.NewRunner(jobStore, jobs.RunnerConfig{
		QueueSize:   cfg.Jobs.QueueSize,
		WorkerCount: cfg.Jobs.WorkerCount,
		StuckJobAge: time.Duration(cfg.Jobs.StuckJobAgeMinutes) * time.Minute,
	}, logger)

	// Event emitter with the email handler registered: task mutations
	// emit events, the handler turns them into email jobs.
	emitter := events.NewInMemoryEventEmitter(logger)
	emailHandler, err := notification.NewEmailEventHandler(emailJobFactory, app.jobRunner, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create email event handler: %w", err)
	}
	emitter.RegisterHandler(emailHandler)
	app.eventEmitter = emitter

	// Services
	app.authService = service.NewAuthService(
		app.userStore,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewBcryptVerifier(),
		app.jwtService,
		db,
		logger,
	)
	app.projectService = service.NewProjectService(app.projectStore, app.taskStore, db, logger)
	app.taskService = service.NewTaskService(app.taskStore, app.projectStore, app.eventEmitter, db, logger)

	// Daily overdue summary sweep
	if cfg.Notify.DailySummaryEnabled {
		summarizer, err := notification.NewOverdueSummarizer(
			app.taskStore,
			app.userStore,
			app.projectStore,
			app.mailer,
			retryPolicy,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create overdue summarizer: %w", err)
		}

		app.scheduler, err = notification.NewSummaryScheduler(summarizer, cfg.Notify.DailySummaryHour, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create summary scheduler: %w", err)
		}
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the background workers and the HTTP server, blocking until
// shutdown. Cleanup runs on every exit path.
func (app *application) Run(ctx context.Context) error {
	if err := app.jobRunner.Start(); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start job runner: %w", err)
	}

	if app.scheduler != nil {
		app.scheduler.Start()
		app.logger.Info("daily overdue summary scheduled",
			"hour_utc", app.config.Notify.DailySummaryHour)
	}

	router := app.setupRouter(ctx)

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
