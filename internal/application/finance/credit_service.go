package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// CreditUsageCache caches per-customer credit snapshots. Entries are
// invalidated explicitly by the flows that change outstanding amounts;
// there are no ambient refresh signals.
type CreditUsageCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (*finance.CreditUsage, bool)
	Set(ctx context.Context, customerID uuid.UUID, usage finance.CreditUsage)
	Invalidate(ctx context.Context, customerID uuid.UUID)
}

// CreditService builds credit usage snapshots for company customers.
// Usage combines the customer's credit limit with the sum of open dues.
type CreditService struct {
	profileRepo partner.CreditProfileRepository
	dueRepo     finance.DueRepository
	cache       CreditUsageCache
	logger      *zap.Logger
}

// NewCreditService creates a new CreditService
func NewCreditService(
	profileRepo partner.CreditProfileRepository,
	dueRepo finance.DueRepository,
	cache CreditUsageCache,
	logger *zap.Logger,
) *CreditService {
	return &CreditService{
		profileRepo: profileRepo,
		dueRepo:     dueRepo,
		cache:       cache,
		logger:      logger,
	}
}

// UsageFor returns the customer's current credit usage snapshot
func (s *CreditService) UsageFor(ctx context.Context, customerID uuid.UUID) (finance.CreditUsage, error) {
	if cached, ok := s.cache.Get(ctx, customerID); ok {
		return *cached, nil
	}

	// A customer without pushed credit terms simply has no credit to draw
	// on; only a failing lookup is an error.
	var creditLimit decimal.Decimal
	profile, err := s.profileRepo.FindByCustomer(ctx, customerID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
	case err != nil:
		return finance.CreditUsage{}, fmt.Errorf("failed to load credit profile: %w", err)
	default:
		creditLimit = profile.CreditLimit
	}

	outstanding, err := s.dueRepo.SumOutstandingByCustomer(ctx, customerID)
	if err != nil {
		return finance.CreditUsage{}, fmt.Errorf("failed to sum outstanding dues: %w", err)
	}

	usage := finance.CreditUsage{
		CreditLimit:      creditLimit,
		TotalOutstanding: outstanding,
	}
	s.cache.Set(ctx, customerID, usage)

	s.logger.Debug("credit usage resolved",
		zap.String("customer_id", customerID.String()),
		zap.String("credit_limit", usage.CreditLimit.String()),
		zap.String("total_outstanding", usage.TotalOutstanding.String()),
	)

	return usage, nil
}

// ProfileFor returns the customer's credit profile
func (s *CreditService) ProfileFor(ctx context.Context, customerID uuid.UUID) (*partner.CreditProfile, error) {
	return s.profileRepo.FindByCustomer(ctx, customerID)
}

// SetProfile writes a customer's credit terms and drops the cached snapshot
func (s *CreditService) SetProfile(ctx context.Context, profile *partner.CreditProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to save credit profile: %w", err)
	}
	s.cache.Invalidate(ctx, profile.CustomerID)

	s.logger.Info("credit profile updated",
		zap.String("customer_id", profile.CustomerID.String()),
		zap.String("credit_limit", profile.CreditLimit.String()),
	)
	return nil
}

// InvalidateCustomer drops the cached snapshot after anything that changes
// the customer's outstanding position (new due, due payment, cancellation)
func (s *CreditService) InvalidateCustomer(ctx context.Context, customerID uuid.UUID) {
	s.cache.Invalidate(ctx, customerID)
}
