package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/laneboard/internal/config"
	"github.com/phrazzld/laneboard/internal/idempotency"
	"github.com/phrazzld/laneboard/internal/platform/postgres"
	"github.com/phrazzld/laneboard/internal/service"
	"github.com/phrazzld/laneboard/internal/service/auth"
	"github.com/phrazzld/laneboard/internal/sse"
	"github.com/phrazzld/laneboard/internal/store"
	"github.com/phrazzld/laneboard/internal/writequeue"
	"golang.org/x/crypto/bcrypt"
)

// application holds the shared application dependencies so construction and
// shutdown happen in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore store.UserStore
	laneStore store.SwimLaneStore
	taskStore store.TaskStore

	// Core plumbing
	guard  *idempotency.Guard
	queue  *writequeue.Queue
	broker *sse.Broker

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	laneService      service.SwimLaneService
	taskService      service.TaskService
}

// newApplication wires all dependencies. The caller owns the database
// connection until newApplication returns successfully; afterwards the
// application closes it during shutdown.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("initializing JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	app.userStore = postgres.NewPostgresUserStore(db, bcryptCost, logger)
	app.laneStore = postgres.NewPostgresSwimLaneStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.guard = idempotency.NewGuard(logger)
	app.broker = sse.NewBroker(
		time.Duration(cfg.SSE.HeartbeatSeconds)*time.Second, logger)
	app.broker.Start()
	app.queue = writequeue.New(cfg.WriteQueue.Size, logger)
	logger.Info("write queue started", "size", cfg.WriteQueue.Size)

	window := time.Duration(cfg.Idempotency.WindowSeconds) * time.Second

	app.userService = service.NewUserService(app.userStore, app.passwordVerifier, logger)
	app.laneService = service.NewSwimLaneService(
		db, app.laneStore, app.guard, window, app.queue, app.broker, logger)
	app.taskService = service.NewTaskService(
		db, app.taskStore, app.laneStore, app.guard, window, app.queue, app.broker, logger)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup shuts the background components down in dependency order: the
// write queue first so pending writes drain against a live database, then
// the SSE broker, then the database connection.
func (app *application) cleanup() {
	if app.queue != nil {
		app.logger.Info("draining write queue", "backlog", app.queue.Backlog())
		app.queue.Stop()
	}

	if app.broker != nil {
		app.broker.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
