// internal/api/types/response.go
package types

import "referral-tracker/internal/domain"

// StatusResponse acknowledges a successful write.
type StatusResponse struct {
	Status string `json:"status"`
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// ReferralsResponse is the body of GET /referrals/{address}.
type ReferralsResponse struct {
	Count  int64                   `json:"count"`
	Recent []domain.RecentReferral `json:"recent"`
}

// NewReferralsResponse converts a summary, always emitting recent as a JSON array.
func NewReferralsResponse(summary *domain.ReferralSummary) ReferralsResponse {
	resp := ReferralsResponse{Recent: []domain.RecentReferral{}}
	if summary == nil {
		return resp
	}
	resp.Count = summary.Count
	if summary.Recent != nil {
		resp.Recent = summary.Recent
	}
	return resp
}
