// internal/repository/user_repo.go
package repository

import (
	"context"
	"fmt"

	"referral-tracker/internal/domain"
	"referral-tracker/pkg/db"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// EnsureSchema creates the users table and its indexes if absent. Safe to call on every start.
	EnsureSchema(ctx context.Context, beginner db.DBTxBeginner) error
	// InsertIfAbsent stores user unless its wallet address is already registered, in which case it is a no-op.
	// The store assigns CreatedAt, written back to user only when a row was created. Both outcomes return nil.
	InsertIfAbsent(ctx context.Context, q DBExecutor, user *domain.User) error
	// CountReferrals returns how many users name address as their referrer.
	CountReferrals(ctx context.Context, q DBExecutor, address string) (int64, error)
	// RecentReferrals returns up to limit users referred by address, newest first.
	RecentReferrals(ctx context.Context, q DBExecutor, address string, limit int) ([]domain.User, error)
}

// UserRow is the persisted shape of a user; created_at is stored as text.
type UserRow struct {
	ID              int64   `db:"id"`
	WalletAddress   string  `db:"wallet_address"`
	Username        *string `db:"username"`
	FirstName       string  `db:"first_name"`
	LastName        *string `db:"last_name"`
	ReferrerAddress *string `db:"referrer_address"`
	CreatedAt       string  `db:"created_at"`
}

// ToDomain converts a row into a domain.User.
func (r UserRow) ToDomain() (domain.User, error) {
	createdAt, err := domain.ParseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %d: %w", r.ID, err)
	}
	return domain.User{
		ID:              r.ID,
		WalletAddress:   r.WalletAddress,
		Username:        r.Username,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		ReferrerAddress: r.ReferrerAddress,
		CreatedAt:       createdAt,
	}, nil
}

// RowsToDomain converts a slice of rows, preserving order.
func RowsToDomain(rows []UserRow) ([]domain.User, error) {
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// ApplySchema executes statements inside a single transaction.
func ApplySchema(ctx context.Context, beginner db.DBTxBeginner, statements []string) error {
	txController, err := db.BeginTx(ctx, beginner)
	if err != nil {
		return fmt.Errorf("ensure schema: failed to begin transaction: %w", err)
	}
	defer db.RollbackTx(txController)

	txExecutor, ok := txController.(DBExecutor)
	if !ok {
		return fmt.Errorf("ensure schema: transaction controller does not implement DBExecutor")
	}

	for _, stmt := range statements {
		if _, err := txExecutor.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	if err := db.CommitTx(txController); err != nil {
		return fmt.Errorf("ensure schema: failed to commit transaction: %w", err)
	}
	return nil
}
