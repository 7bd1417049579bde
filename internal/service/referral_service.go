// internal/service/referral_service.go
package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"referral-tracker/internal/domain"
	"referral-tracker/internal/repository"
	"referral-tracker/internal/util"
)

var tracer = otel.Tracer("referral-tracker/internal/service")

// ReferralService defines the interface for registration and referral lookups.
type ReferralService interface {
	Register(ctx context.Context, reg domain.Registration) error
	GetReferrals(ctx context.Context, address string) (*domain.ReferralSummary, error)
}

// referralService implements the ReferralService interface.
type referralService struct {
	dbExecutor repository.DBExecutor // Shared handle, e.g. *sqlx.DB
	userRepo   repository.UserRepository
}

// NewReferralService creates a new instance of ReferralService.
func NewReferralService(dbExecutor repository.DBExecutor, userRepo repository.UserRepository) ReferralService {
	return &referralService{
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
	}
}

// Register stores the wallet unless it is already known. Re-registering is not an error.
func (s *referralService) Register(ctx context.Context, reg domain.Registration) error {
	ctx, span := tracer.Start(ctx, "ReferralService.Register", trace.WithAttributes(
		attribute.String("wallet.address", reg.Address),
		attribute.Bool("referral.has_referrer", reg.Referrer != nil),
	))
	defer span.End()

	if reg.Address == "" || reg.FirstName == "" {
		return util.ErrInvalidInput
	}

	user := domain.NewUser(reg)
	if err := s.userRepo.InsertIfAbsent(ctx, s.dbExecutor, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("%w: register: %w", util.ErrStorage, err)
	}
	return nil
}

// GetReferrals returns the referral count for address and its most recent referrals.
// An address that referred nobody yields a zero count and an empty list.
func (s *referralService) GetReferrals(ctx context.Context, address string) (*domain.ReferralSummary, error) {
	ctx, span := tracer.Start(ctx, "ReferralService.GetReferrals", trace.WithAttributes(
		attribute.String("wallet.address", address),
	))
	defer span.End()

	count, err := s.userRepo.CountReferrals(ctx, s.dbExecutor, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, fmt.Errorf("%w: get referrals: %w", util.ErrStorage, err)
	}

	users, err := s.userRepo.RecentReferrals(ctx, s.dbExecutor, address, domain.RecentReferralsLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("%w: get referrals: %w", util.ErrStorage, err)
	}

	summary := &domain.ReferralSummary{
		Count:  count,
		Recent: make([]domain.RecentReferral, 0, len(users)),
	}
	for _, u := range users {
		summary.Recent = append(summary.Recent, domain.NewRecentReferral(u))
	}
	span.SetAttributes(attribute.Int64("referral.count", count))
	return summary, nil
}
