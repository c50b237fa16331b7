// Package testutil provides utilities for testing
package testutil

import (
	"context"
	"testing"

	"authd/internal/config"
	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/repository/postgres"
	"authd/internal/testutil/db"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// LoadTestConfig loads the test configuration
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return db.LoadTestConfig(t)
}

// TestContext holds the PostgreSQL backed dependencies of integration tests
type TestContext struct {
	T         *testing.T
	DB        *sqlx.DB
	Config    *config.Config
	UserRepo  repository.UserRepository
	CodeRepo  repository.VerificationCodeRepository
	TokenRepo repository.TokenRepository
}

// NewTestContext creates a new test context on a freshly migrated database.
// It skips the test when no test database is configured or reachable.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	cfg := LoadTestConfig(t)
	testDB := db.SetupTestDB(t, &cfg.Database)

	tc := &TestContext{
		T:         t,
		DB:        testDB,
		Config:    cfg,
		UserRepo:  postgres.NewUserRepository(testDB),
		CodeRepo:  postgres.NewVerificationCodeRepository(testDB),
		TokenRepo: postgres.NewTokenRepository(testDB),
	}

	t.Cleanup(tc.cleanup)
	return tc
}

// cleanup performs necessary cleanup after tests
func (tc *TestContext) cleanup() {
	if tc.DB != nil {
		if err := db.CleanupTestDB(tc.DB); err != nil {
			tc.T.Errorf("Failed to cleanup test database: %v", err)
		}
		tc.DB.Close()
	}
}

// CreateTestUser creates a user with a bcrypt hash of password
func (tc *TestContext) CreateTestUser(email, password string) *models.User {
	tc.T.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(tc.T, err, "Failed to hash password")

	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: "Test",
	}
	require.NoError(tc.T, tc.UserRepo.Create(context.Background(), user), "Failed to create test user")

	return user
}

// ExecuteSQL executes a raw SQL query for testing
func (tc *TestContext) ExecuteSQL(query string, args ...interface{}) {
	tc.T.Helper()
	_, err := tc.DB.ExecContext(context.Background(), query, args...)
	require.NoError(tc.T, err)
}
