// internal/repository/sqlite/user_sqlite.go
package sqlite

import (
	"context"
	"fmt"
	"time"

	"referral-tracker/internal/domain"
	"referral-tracker/internal/repository"
	"referral-tracker/pkg/db"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		wallet_address   TEXT UNIQUE,
		username         TEXT,
		first_name       TEXT,
		last_name        TEXT,
		referrer_address TEXT,
		created_at       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_referrer_created_at ON users (referrer_address, created_at DESC)`,
}

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	now func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{now: time.Now}
}

// EnsureSchema creates the users table and referral index if they do not exist.
func (r *UserRepository) EnsureSchema(ctx context.Context, beginner db.DBTxBeginner) error {
	return repository.ApplySchema(ctx, beginner, schemaStatements)
}

// InsertIfAbsent inserts the user; INSERT OR IGNORE turns a duplicate wallet_address into a no-op.
func (r *UserRepository) InsertIfAbsent(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	createdAt := r.now().UTC()
	query := `INSERT OR IGNORE INTO users (wallet_address, username, first_name, last_name, referrer_address, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query,
		user.WalletAddress,
		user.Username,
		user.FirstName,
		user.LastName,
		user.ReferrerAddress,
		domain.FormatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user %s: %w", user.WalletAddress, err)
	}
	// Zero rows affected means the address was already registered; the stored record is untouched
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		user.CreatedAt = createdAt
	}
	return nil
}

// CountReferrals counts users whose referrer_address equals address.
func (r *UserRepository) CountReferrals(ctx context.Context, q repository.DBExecutor, address string) (int64, error) {
	var count int64
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE referrer_address = ?`, address); err != nil {
		return 0, fmt.Errorf("failed to count referrals for '%s': %w", address, err)
	}
	return count, nil
}

// RecentReferrals lists up to limit users referred by address, newest first.
func (r *UserRepository) RecentReferrals(ctx context.Context, q repository.DBExecutor, address string, limit int) ([]domain.User, error) {
	rows := []repository.UserRow{}
	query := `
		SELECT id, wallet_address, username, first_name, last_name, referrer_address, created_at
		FROM users
		WHERE referrer_address = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	if err := q.SelectContext(ctx, &rows, query, address, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch recent referrals for '%s': %w", address, err)
	}
	users, err := repository.RowsToDomain(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recent referrals for '%s': %w", address, err)
	}
	return users, nil
}
