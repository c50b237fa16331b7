// Package db provides database utilities for testing
package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"authd/internal/config"
	"authd/internal/database"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// CleanupTestDB drops all tables in the test database
func CleanupTestDB(db *sqlx.DB) error {
	var tables []string
	err := db.Select(&tables, `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`)
	if err != nil {
		return fmt.Errorf("failed to get table names: %w", err)
	}

	if len(tables) == 0 {
		return nil
	}

	dropQuery := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", strings.Join(tables, ", "))
	if _, err := db.Exec(dropQuery); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

// SetupTestDB connects to the test database, recreates the schema and returns
// the pool. The test is skipped when the database is unreachable.
func SetupTestDB(t *testing.T, cfg *config.DatabaseConfig) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(context.Background(), *cfg)
	if err != nil {
		t.Skipf("integration test: database unavailable: %v", err)
	}

	require.NoError(t, CleanupTestDB(db), "Failed to cleanup test database")

	var tableCount int
	err = db.Get(&tableCount, `SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public'`)
	require.NoError(t, err, "Failed to count tables")
	require.Equal(t, 0, tableCount, "Database should be empty before running migrations")

	// Run migrations using the same setup as the main app
	require.NoError(t, database.RunMigrations(*cfg), "Failed to run migrations")

	return db
}
