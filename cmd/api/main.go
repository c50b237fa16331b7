// Package main provides the entry point for the authd API server and worker
// @title authd API
// @version 1.0
// @description Email verified registration and JWT session service.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"authd/internal/config"
	"authd/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:          "authd",
	Short:        "authd - email verified registration and session service",
	SilenceUsage: true,
	// Default to serve when no subcommand is given
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("authd", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to env file")
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the env file and configuration and installs the logger
func bootstrap() (*config.Config, *slog.Logger, error) {
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.Debug).With("version", version)
	slog.SetDefault(logger)

	if envErr != nil && envFile != ".env" {
		logger.Warn("failed to load env file", "path", envFile, "error", envErr)
	}

	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
