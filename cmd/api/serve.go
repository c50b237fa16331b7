package main

import (
	"context"
	"time"

	"authd/internal/api/handlers"
	"authd/internal/api/routes"
	"authd/internal/api/server"
	"authd/internal/cache"
	"authd/internal/database"
	"authd/internal/events"
	"authd/internal/repository/postgres"
	"authd/internal/tasks"
	"authd/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.SetupDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to set up database", "error", err)
		return err
	}
	defer db.Close()

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return err
	}
	defer rdb.Close()

	taskClient := tasks.NewClient(cfg.Redis)
	defer taskClient.Close()

	publisher := events.NewPublisher(cfg.Kafka)
	defer publisher.Close()

	validation.Initialize()

	done := make(chan struct{})
	defer close(done)

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		Users:  postgres.NewUserRepository(db),
		Codes:  postgres.NewVerificationCodeRepository(db),
		Tokens: postgres.NewTokenRepository(db),
		Tasks:  taskClient,
		Events: publisher,
		Checks: map[string]handlers.HealthCheck{
			"database": db.PingContext,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		Logger: logger,
		Done:   done,
	})

	srv := server.New(cfg.App.Port, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exiting")
	return nil
}
