package db

import (
	"path/filepath"
	"runtime"
	"testing"

	"passguard/internal/config"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// LoadTestConfig loads .env.test from the project root and builds the
// configuration the integration tests run against.
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// Project root is three levels up from this file
	projectRoot, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", ".."))
	require.NoError(t, err, "Failed to get absolute project root path")

	err = godotenv.Load(filepath.Join(projectRoot, ".env.test"))
	require.NoError(t, err, "Failed to load .env.test file")

	cfg := &config.Config{}
	err = cfg.LoadFromEnv()
	require.NoError(t, err, "Failed to load config")

	// The migrations path must be absolute regardless of the test's working
	// directory.
	cfg.Database.MigrationsPath = filepath.Join(projectRoot, "migrations")

	return cfg
}
