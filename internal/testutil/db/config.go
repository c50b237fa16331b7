package db

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"authd/internal/config"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// LoadTestConfig loads .env.test from the project root. The test is skipped
// when the file does not exist.
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	// Get the absolute path to this file
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// Calculate project root (3 levels up from this file)
	projectRoot, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", ".."))
	require.NoError(t, err, "Failed to get absolute project root path")

	envFile := filepath.Join(projectRoot, ".env.test")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		t.Skip("integration test: .env.test not found")
	}
	require.NoError(t, godotenv.Load(envFile), "Failed to load .env.test file")

	cfg := &config.Config{}
	require.NoError(t, cfg.LoadFromEnv(), "Failed to load config")

	// Only override migrations path to ensure it's absolute
	cfg.Database.MigrationsPath = filepath.Join(projectRoot, "migrations")

	return cfg
}
