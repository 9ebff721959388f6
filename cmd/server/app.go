package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/brainace/internal/api"
	"github.com/phrazzld/brainace/internal/config"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/due"
	"github.com/phrazzld/brainace/internal/events"
	"github.com/phrazzld/brainace/internal/platform/postgres"
	"github.com/phrazzld/brainace/internal/service"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	gardenService service.GardenService
	reviewService service.ReviewService
	eventEmitter  *events.InMemoryEventEmitter
	sessions      *api.SessionRegistry
}

// newApplication creates the PostgreSQL stores over db and wires the
// services on top of them.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	stores := service.GardenStores{
		Collections: postgres.NewPostgresCollectionStore(db, logger),
		Sections:    postgres.NewPostgresSectionStore(db, logger),
		SubSections: postgres.NewPostgresSubSectionStore(db, logger),
		Items:       postgres.NewPostgresItemStore(db, logger),
	}
	app, err := wireApplication(cfg, logger, stores, domain.SystemClock{})
	if err != nil {
		return nil, err
	}
	app.db = db
	return app, nil
}

// wireApplication builds the services, event emitter and session registry
// over the given stores.
func wireApplication(
	cfg *config.Config,
	logger *slog.Logger,
	stores service.GardenStores,
	clock domain.Clock,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	reviewer, err := srs.NewServiceWithParams(&srs.Params{
		RequestRetention: cfg.Scheduler.RequestRetention,
		MaximumInterval:  cfg.Scheduler.MaximumInterval,
		EnableFuzz:       cfg.Scheduler.EnableFuzz,
		EnableShortTerm:  cfg.Scheduler.EnableShortTerm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLogHandler(logger))

	app.gardenService, err = service.NewGardenService(stores, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create garden service: %w", err)
	}

	app.reviewService, err = service.NewReviewService(stores.Collections, stores.Items, reviewer, clock, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	app.sessions = api.NewSessionRegistry(cfg.Review.MaxSessions, clock)

	logger.Info("application initialized",
		slog.Float64("request_retention", cfg.Scheduler.RequestRetention),
		slog.String("default_filter", cfg.Review.DefaultFilter),
		slog.Int("max_sessions", cfg.Review.MaxSessions))
	return app, nil
}

// Run starts the HTTP server and the idle session sweeper, and blocks until
// ctx is cancelled or the server fails.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go app.sweepSessions(sweepCtx, app.config.Review.SessionIdleTimeout)

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// sweepSessions drops idle review sessions until ctx is done.
func (app *application) sweepSessions(ctx context.Context, idle time.Duration) {
	interval := idle / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.sessions.EvictIdle(idle); n > 0 {
				app.logger.Debug("idle review sessions evicted", slog.Int("count", n))
			}
		}
	}
}

// defaultFilter is the configured session filter; config validation keeps
// it to a known value.
func (app *application) defaultFilter() due.Filter {
	return due.Filter(app.config.Review.DefaultFilter)
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
