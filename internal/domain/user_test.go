// internal/domain/user_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"UsernameWins", User{Username: strPtr("alice"), FirstName: "Alice", LastName: strPtr("Smith")}, "alice"},
		{"FirstAndLast", User{FirstName: "Bob", LastName: strPtr("Lee")}, "Bob Lee"},
		{"FirstOnly", User{FirstName: "Bob"}, "Bob"},
		{"EmptyLastName", User{FirstName: "Bob", LastName: strPtr("")}, "Bob"},
		{"EmptyUsernameFallsBack", User{Username: strPtr(""), FirstName: "Carol", LastName: strPtr("Ng")}, "Carol Ng"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.user.DisplayName())
		})
	}
}

func TestNewUserLeavesCreatedAtToStore(t *testing.T) {
	u := NewUser(Registration{Address: "0xA", FirstName: "Alice", Referrer: strPtr("0xR")})

	assert.Equal(t, "0xA", u.WalletAddress)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "0xR", *u.ReferrerAddress)
	assert.Nil(t, u.Username)
	assert.True(t, u.CreatedAt.IsZero())
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 123456000, time.FixedZone("CET", 3600))

	formatted := FormatTimestamp(ts)
	assert.Equal(t, "2024-03-09T06:05:01.123456Z", formatted)

	parsed, err := ParseTimestamp(formatted)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestTimestampOrderingIsLexicographic(t *testing.T) {
	earlier := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 9, 900000000, time.UTC))
	later := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC))

	assert.Less(t, earlier, later)
}

func TestParseTimestampAcceptsLegacyFormats(t *testing.T) {
	parsed, err := ParseTimestamp("2024-05-01T10:20:30.123456")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC), parsed)

	parsed, err = ParseTimestamp("2024-05-01T10:20:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC), parsed)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestNewRecentReferral(t *testing.T) {
	created := time.Date(2024, 2, 2, 2, 2, 2, 0, time.UTC)
	entry := NewRecentReferral(User{FirstName: "Bob", CreatedAt: created})

	assert.Equal(t, RecentReferral{Display: "Bob", When: "2024-02-02T02:02:02.000000Z"}, entry)
}
