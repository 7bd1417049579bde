// internal/domain/referral.go
package domain

// RecentReferralsLimit caps the number of entries returned in ReferralSummary.Recent.
const RecentReferralsLimit = 10

// RecentReferral is one entry of a referrer's most recent referrals.
type RecentReferral struct {
	Display string `json:"display"` // Derived at read time, never stored
	When    string `json:"when"`    // created_at of the referred user, ISO-8601 UTC
}

// ReferralSummary aggregates how many users an address referred and who the latest were.
type ReferralSummary struct {
	Count  int64            `json:"count"`
	Recent []RecentReferral `json:"recent"`
}

// NewRecentReferral derives the display entry for a referred user.
func NewRecentReferral(u User) RecentReferral {
	return RecentReferral{
		Display: u.DisplayName(),
		When:    FormatTimestamp(u.CreatedAt),
	}
}
