// internal/repository/postgres/user_pg_test.go
package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"referral-tracker/internal/repository"
	"referral-tracker/internal/repository/repotest"
	"referral-tracker/pkg/db"
)

// These tests need a reachable PostgreSQL; set POSTGRES_TESTS=1 plus the usual DB_* variables.
func newTestStore(t *testing.T) (*sqlx.DB, repository.UserRepository) {
	t.Helper()
	if os.Getenv("POSTGRES_TESTS") == "" {
		t.Skip("POSTGRES_TESTS not set")
	}

	cfg := db.Config{
		Host:     envOr("DB_HOST", "localhost"),
		User:     envOr("DB_USER", "user"),
		Password: envOr("DB_PASSWORD", "password"),
		DBName:   envOr("DB_NAME", "referrals_test"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	port, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	require.NoError(t, err)
	cfg.Port = port

	conn, err := db.NewPostgresDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewUserRepository()
	require.NoError(t, repo.EnsureSchema(context.Background(), conn))
	// TRUNCATE ... RESTART IDENTITY gives every case an empty table.
	_, err = conn.Exec("TRUNCATE TABLE users RESTART IDENTITY;")
	require.NoError(t, err)
	return conn, repo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestUserRepositoryContract(t *testing.T) {
	repotest.RunUserRepositoryContract(t, newTestStore)
}
