// internal/domain/user.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width ISO-8601 UTC layout used to persist created_at.
// Fixed width keeps lexicographic order identical to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// legacyLayouts are accepted when reading rows written by other tools.
var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999", // naive ISO-8601, assumed UTC
	"2006-01-02 15:04:05.999999999",
}

// User represents a registered wallet and, optionally, the wallet that referred it.
type User struct {
	ID              int64     `db:"id" json:"id"`                             // Store-assigned, never reused
	WalletAddress   string    `db:"wallet_address" json:"wallet_address"`     // Unique natural key
	Username        *string   `db:"username" json:"username"`                 // Optional
	FirstName       string    `db:"first_name" json:"first_name"`             // Required
	LastName        *string   `db:"last_name" json:"last_name"`               // Optional
	ReferrerAddress *string   `db:"referrer_address" json:"referrer_address"` // Unchecked reference to another wallet
	CreatedAt       time.Time `db:"created_at" json:"created_at"`             // Assigned by the store on first insert
}

// Registration carries the fields accepted when registering a wallet.
type Registration struct {
	Address   string
	Username  *string
	FirstName string
	LastName  *string
	Referrer  *string
}

// NewUser creates a new User instance from a registration.
// CreatedAt is left zero; the store assigns it at insert time.
func NewUser(reg Registration) *User {
	return &User{
		WalletAddress:   reg.Address,
		Username:        reg.Username,
		FirstName:       reg.FirstName,
		LastName:        reg.LastName,
		ReferrerAddress: reg.Referrer,
	}
}

// DisplayName returns the username when set, otherwise "first last" trimmed.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	lastName := ""
	if u.LastName != nil {
		lastName = *u.LastName
	}
	return strings.TrimSpace(u.FirstName + " " + lastName)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a persisted created_at value.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
