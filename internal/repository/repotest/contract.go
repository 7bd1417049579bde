// internal/repository/repotest/contract.go
// Package repotest holds the behaviour every repository.UserRepository engine must share.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker/internal/domain"
	"referral-tracker/internal/repository"
)

// Factory returns an empty database with the schema already ensured, plus the repository under test.
type Factory func(t *testing.T) (*sqlx.DB, repository.UserRepository)

func strPtr(s string) *string { return &s }

// RunUserRepositoryContract runs the shared store behaviour against the engine built by newStore.
func RunUserRepositoryContract(t *testing.T, newStore Factory) {
	t.Run("EnsureSchemaIsIdempotent", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		require.NoError(t, repo.EnsureSchema(ctx, conn))
		require.NoError(t, repo.EnsureSchema(ctx, conn))
	})

	t.Run("InsertIfAbsentKeepsFirstRecord", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		first := domain.NewUser(domain.Registration{Address: "0xA", FirstName: "Alice", Referrer: strPtr("0xR")})
		require.NoError(t, repo.InsertIfAbsent(ctx, conn, first))
		time.Sleep(2 * time.Millisecond)

		second := domain.NewUser(domain.Registration{Address: "0xA", FirstName: "Mallory", Username: strPtr("mal")})
		require.NoError(t, repo.InsertIfAbsent(ctx, conn, second), "duplicate address must not be an error")
		assert.True(t, second.CreatedAt.IsZero(), "skipped insert must not report a creation time")

		stored := allRows(t, conn)
		require.Len(t, stored, 1)
		assert.Equal(t, "Alice", stored[0].FirstName)
		assert.Nil(t, stored[0].Username)
		assert.Equal(t, domain.FormatTimestamp(first.CreatedAt), stored[0].CreatedAt)

		recent, err := repo.RecentReferrals(ctx, conn, "0xR", domain.RecentReferralsLimit)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "Alice", recent[0].DisplayName())
	})

	t.Run("DistinctAddressesGetDistinctRows", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		for _, addr := range []string{"0xA", "0xB", "0xC"} {
			require.NoError(t, repo.InsertIfAbsent(ctx, conn, domain.NewUser(domain.Registration{Address: addr, FirstName: addr})))
		}

		stored := allRows(t, conn)
		require.Len(t, stored, 3)
		seen := map[string]bool{}
		for i, row := range stored {
			assert.False(t, seen[row.WalletAddress], "duplicate wallet_address %s", row.WalletAddress)
			seen[row.WalletAddress] = true
			if i > 0 {
				assert.Greater(t, row.ID, stored[i-1].ID, "ids must increase")
			}
		}
	})

	t.Run("CountReferrals", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		count, err := repo.CountReferrals(ctx, conn, "0xNEVERSEEN")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		regs := []domain.Registration{
			{Address: "0xA", FirstName: "Alice"},
			{Address: "0xB", FirstName: "Bob", Referrer: strPtr("0xA")},
			{Address: "0xC", FirstName: "Cai", Referrer: strPtr("0xA")},
			{Address: "0xD", FirstName: "Dee", Referrer: strPtr("0xB")},
			{Address: "0xE", FirstName: "Eve", Referrer: strPtr("0xGHOST")},
		}
		for _, reg := range regs {
			require.NoError(t, repo.InsertIfAbsent(ctx, conn, domain.NewUser(reg)))
		}

		for addr, want := range map[string]int64{"0xA": 2, "0xB": 1, "0xC": 0, "0xGHOST": 1} {
			count, err := repo.CountReferrals(ctx, conn, addr)
			require.NoError(t, err)
			assert.Equal(t, want, count, "referrals of %s", addr)
		}
	})

	t.Run("EmptyReferrerIsLiteralKey", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		require.NoError(t, repo.InsertIfAbsent(ctx, conn, domain.NewUser(domain.Registration{Address: "0xA", FirstName: "Alice", Referrer: strPtr("")})))
		require.NoError(t, repo.InsertIfAbsent(ctx, conn, domain.NewUser(domain.Registration{Address: "0xB", FirstName: "Bob"})))

		count, err := repo.CountReferrals(ctx, conn, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "NULL referrer must not match the empty string")
	})

	t.Run("RecentReferralsNewestFirstAndCapped", func(t *testing.T) {
		conn, repo := newStore(t)
		ctx := context.Background()

		total := domain.RecentReferralsLimit + 2
		for i := 0; i < total; i++ {
			reg := domain.Registration{Address: fmt.Sprintf("0xR%02d", i), FirstName: fmt.Sprintf("User%02d", i), Referrer: strPtr("0xA")}
			require.NoError(t, repo.InsertIfAbsent(ctx, conn, domain.NewUser(reg)))
			time.Sleep(2 * time.Millisecond)
		}

		recent, err := repo.RecentReferrals(ctx, conn, "0xA", domain.RecentReferralsLimit)
		require.NoError(t, err)
		require.Len(t, recent, domain.RecentReferralsLimit)

		assert.Equal(t, fmt.Sprintf("0xR%02d", total-1), recent[0].WalletAddress)
		for i := 1; i < len(recent); i++ {
			assert.False(t, recent[i].CreatedAt.After(recent[i-1].CreatedAt), "entries must be ordered newest first")
		}

		count, err := repo.CountReferrals(ctx, conn, "0xA")
		require.NoError(t, err)
		assert.Equal(t, int64(total), count, "count is not truncated")
	})

	t.Run("RecentReferralsEmpty", func(t *testing.T) {
		conn, repo := newStore(t)

		recent, err := repo.RecentReferrals(context.Background(), conn, "0xNEVERSEEN", domain.RecentReferralsLimit)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func allRows(t *testing.T, conn *sqlx.DB) []repository.UserRow {
	t.Helper()
	rows := []repository.UserRow{}
	err := conn.Select(&rows, `SELECT id, wallet_address, username, first_name, last_name, referrer_address, created_at FROM users ORDER BY id`)
	require.NoError(t, err)
	return rows
}
