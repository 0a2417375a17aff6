package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// DueService manages the receivable ledger
type DueService struct {
	dueRepo     finance.DueRepository
	creditCache CreditUsageCache
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewDueService creates a new DueService
func NewDueService(
	dueRepo finance.DueRepository,
	creditCache CreditUsageCache,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *DueService {
	return &DueService{
		dueRepo:     dueRepo,
		creditCache: creditCache,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// RecordPayment applies a collected payment against a due
func (s *DueService) RecordPayment(ctx context.Context, dueID uuid.UUID, amount decimal.Decimal, method finance.PaymentMethod, remark string) (*finance.Due, error) {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load due: %w", err)
	}
	if due == nil {
		return nil, shared.ErrNotFound
	}

	if err := due.RecordPayment(valueobject.NewMoneyAED(amount), method, remark); err != nil {
		return nil, err
	}

	if err := s.dueRepo.SaveWithLock(ctx, due); err != nil {
		return nil, fmt.Errorf("failed to save due: %w", err)
	}

	// Paying down a due frees credit headroom.
	s.creditCache.Invalidate(ctx, due.CustomerID)
	s.publishEvents(ctx, due)

	s.logger.Info("due payment recorded",
		zap.String("due_number", due.DueNumber),
		zap.String("amount", amount.String()),
		zap.String("status", due.Status.String()),
	)

	return due, nil
}

// CancelDue voids a due that has no recorded collections
func (s *DueService) CancelDue(ctx context.Context, dueID uuid.UUID, reason string) (*finance.Due, error) {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load due: %w", err)
	}
	if due == nil {
		return nil, shared.ErrNotFound
	}

	if err := due.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.dueRepo.SaveWithLock(ctx, due); err != nil {
		return nil, fmt.Errorf("failed to save due: %w", err)
	}

	s.creditCache.Invalidate(ctx, due.CustomerID)
	s.publishEvents(ctx, due)

	return due, nil
}

// SweepOverdue marks every past-due pending/partial record as overdue and
// returns how many were transitioned. Intended to run on a schedule.
func (s *DueService) SweepOverdue(ctx context.Context) (int, error) {
	candidates, err := s.dueRepo.FindOverdueCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue candidates: %w", err)
	}

	now := time.Now()
	swept := 0
	for i := range candidates {
		due := &candidates[i]
		if !due.IsOverdueCandidate(now) {
			continue
		}
		if err := due.MarkOverdue(now); err != nil {
			s.logger.Warn("failed to mark due overdue",
				zap.String("due_number", due.DueNumber),
				zap.Error(err),
			)
			continue
		}
		if err := s.dueRepo.SaveWithLock(ctx, due); err != nil {
			s.logger.Warn("failed to save overdue due",
				zap.String("due_number", due.DueNumber),
				zap.Error(err),
			)
			continue
		}
		s.publishEvents(ctx, due)
		swept++
	}

	if swept > 0 {
		s.logger.Info("overdue sweep completed", zap.Int("swept", swept))
	}

	return swept, nil
}

// GetDue returns a due by ID
func (s *DueService) GetDue(ctx context.Context, dueID uuid.UUID) (*finance.Due, error) {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, err
	}
	if due == nil {
		return nil, shared.ErrNotFound
	}
	return due, nil
}

// GetDueForBilling returns the due opened for a billing, nil if none
func (s *DueService) GetDueForBilling(ctx context.Context, billingID uuid.UUID) (*finance.Due, error) {
	return s.dueRepo.FindByBilling(ctx, billingID)
}

// ListOutstanding returns a customer's open dues, oldest first
func (s *DueService) ListOutstanding(ctx context.Context, customerID uuid.UUID) ([]finance.Due, error) {
	return s.dueRepo.FindOutstandingByCustomer(ctx, customerID)
}

// ListDues returns dues matching the filter
func (s *DueService) ListDues(ctx context.Context, filter shared.Filter) ([]finance.Due, error) {
	return s.dueRepo.FindAll(ctx, filter)
}

func (s *DueService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
	aggregate.ClearDomainEvents()
}
