package main

import (
	"fmt"

	"authd/internal/cache"
	"authd/internal/database"
	"authd/internal/email"
	"authd/internal/repository/postgres"
	"authd/internal/tasks"
	"authd/internal/verification"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the task worker and the cleanup scheduler",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return err
	}
	defer rdb.Close()

	sender, err := email.NewSender(cfg.Email, logger)
	if err != nil {
		return err
	}

	loc, err := cfg.Worker.Location()
	if err != nil {
		return fmt.Errorf("invalid worker timezone: %w", err)
	}

	codes := verification.NewService(postgres.NewVerificationCodeRepository(db), cfg.Verification)
	handlers := tasks.NewHandlers(codes, sender, tasks.NewRedisMarker(rdb))

	srv := tasks.NewServer(cfg.Redis, cfg.Worker, logger)
	if err := srv.Start(tasks.NewServeMux(handlers)); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	defer srv.Shutdown()

	client := tasks.NewClient(cfg.Redis)
	defer client.Close()

	scheduler := tasks.NewScheduler(loc, logger)
	scheduler.Register(tasks.CleanupJob(cfg.Worker.CleanupSchedule, client))

	logger.Info("worker started", "concurrency", cfg.Worker.Concurrency, "timezone", loc.String())

	// Start blocks until the signal context is cancelled
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	logger.Info("worker exiting")
	return nil
}
