// Package testutil provides utilities for testing
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"passguard/internal/config"
	"passguard/internal/models"
	"passguard/internal/repository"
	"passguard/internal/repository/postgres"
	"passguard/internal/testutil/db"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestContext holds the database and repositories shared by integration tests
type TestContext struct {
	T                *testing.T
	DB               *sql.DB
	Config           *config.Config
	UserRepo         repository.UserRepository
	RoleRepo         repository.RoleRepository
	HistoryRepo      repository.PasswordHistoryRepository
	ForcedRepo       repository.PasswordChangeRequiredRepository
	SessionRepo      repository.SessionRepository
	ResetRepo        repository.PasswordResetRepository
	LoginAttemptRepo repository.LoginAttemptRepository
	AuditRepo        repository.AuditLogRepository
	RefreshTokenRepo repository.RefreshTokenRepository
}

// NewTestContext migrates a clean test database and wires every repository
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	cfg := db.LoadTestConfig(t)
	testDB := db.SetupTestDB(t, cfg.Database)

	tc := &TestContext{
		T:                t,
		DB:               testDB,
		Config:           cfg,
		UserRepo:         postgres.NewUserRepository(testDB),
		RoleRepo:         postgres.NewRoleRepository(testDB),
		HistoryRepo:      postgres.NewPasswordHistoryRepository(testDB),
		ForcedRepo:       postgres.NewPasswordChangeRequiredRepository(testDB),
		SessionRepo:      postgres.NewSessionRepository(testDB),
		ResetRepo:        postgres.NewPasswordResetRepository(testDB),
		LoginAttemptRepo: postgres.NewLoginAttemptRepository(testDB),
		AuditRepo:        postgres.NewAuditLogRepository(testDB),
		RefreshTokenRepo: postgres.NewRefreshTokenRepository(testDB),
	}

	t.Cleanup(func() {
		if err := db.CleanupTestDB(testDB); err != nil {
			t.Errorf("Failed to cleanup test database: %v", err)
		}
		testDB.Close()
	})

	return tc
}

// CreateTestUser creates a user with a bcrypt-hashed password and returns it
func (tc *TestContext) CreateTestUser(username, email, password string, isAdmin bool) *models.User {
	tc.T.Helper()

	roleName := "user"
	if isAdmin {
		roleName = "admin"
	}
	role, err := tc.RoleRepo.GetByName(context.Background(), roleName)
	require.NoError(tc.T, err, "Failed to get role")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(tc.T, err, "Failed to hash password")

	user := &models.User{
		Username: username,
		Password: string(hash),
		Email:    &email,
		RoleID:   role.ID,
		Role:     role,
	}
	err = tc.UserRepo.Create(context.Background(), user)
	require.NoError(tc.T, err, "Failed to create test user")

	return user
}

// ExecuteSQL executes a raw SQL statement, failing the test on error
func (tc *TestContext) ExecuteSQL(query string, args ...interface{}) {
	tc.T.Helper()
	_, err := tc.DB.ExecContext(context.Background(), query, args...)
	require.NoError(tc.T, err)
}

// CountRows returns the number of rows a query yields via COUNT(*)
func (tc *TestContext) CountRows(query string, args ...interface{}) int {
	tc.T.Helper()
	var count int
	err := tc.DB.QueryRowContext(context.Background(), query, args...).Scan(&count)
	require.NoError(tc.T, err)
	return count
}
