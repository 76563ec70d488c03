// Package main implements the entry point for the laneboard server, a
// kanban-style task board API with swimlanes, tasks, comments, and live
// change notifications over Server-Sent Events.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/phrazzld/laneboard/internal/config"
	"github.com/phrazzld/laneboard/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("laneboard: %v", err)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if migrateCmd != "" {
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				appLogger.Error("closing database connection", "error", closeErr)
			}
		}()
		return runMigrations(db, migrateCmd, appLogger)
	}

	if err := runMigrations(db, "up", appLogger); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	return app.Run(ctx)
}
