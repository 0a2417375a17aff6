package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// BalanceCache caches per-customer advance balance totals, invalidated
// explicitly whenever receipts are recorded, amended or drawn from.
type BalanceCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (*decimal.Decimal, bool)
	Set(ctx context.Context, customerID uuid.UUID, balance decimal.Decimal)
	Invalidate(ctx context.Context, customerID uuid.UUID)
}

// AdvanceService manages advance payment receipts and their settlement
// against billings.
//
// SettleBilling assumes the caller already holds the per-customer lock;
// the submission flow serializes evaluate-credit, create-billing and
// settle as one critical section.
type AdvanceService struct {
	receiptRepo    finance.AdvanceReceiptRepository
	allocationRepo finance.AllocationRepository
	strategy       finance.SettlementStrategy
	balanceCache   BalanceCache
	eventBus       shared.EventPublisher
	logger         *zap.Logger
}

// NewAdvanceService creates a new AdvanceService
func NewAdvanceService(
	receiptRepo finance.AdvanceReceiptRepository,
	allocationRepo finance.AllocationRepository,
	balanceCache BalanceCache,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *AdvanceService {
	return &AdvanceService{
		receiptRepo:    receiptRepo,
		allocationRepo: allocationRepo,
		strategy:       finance.NewFIFOSettlementStrategy(),
		balanceCache:   balanceCache,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// RecordReceiptRequest is a request to enter an advance payment
type RecordReceiptRequest struct {
	CustomerID   uuid.UUID
	CustomerKind partner.CustomerKind
	CustomerName string
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Method       finance.PaymentMethod
	Remark       string
}

// RecordReceipt enters a new advance payment for a customer
func (s *AdvanceService) RecordReceipt(ctx context.Context, req RecordReceiptRequest) (*finance.AdvanceReceipt, error) {
	number, err := s.receiptRepo.NextReceiptNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt number: %w", err)
	}

	receipt, err := finance.NewAdvanceReceipt(
		number,
		req.CustomerID,
		req.CustomerKind,
		req.CustomerName,
		valueobject.NewMoneyAED(req.Amount),
		req.PaymentDate,
		req.Method,
		req.Remark,
	)
	if err != nil {
		return nil, err
	}

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	s.balanceCache.Invalidate(ctx, req.CustomerID)
	s.publishEvents(ctx, receipt)

	s.logger.Info("advance receipt recorded",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("amount", req.Amount.String()),
	)

	return receipt, nil
}

// AmendReceipt corrects a receipt amount. The persisted allocation sum is
// re-read first so the over-application check runs against authoritative
// data, not the in-memory counter alone.
func (s *AdvanceService) AmendReceipt(ctx context.Context, receiptID uuid.UUID, newAmount decimal.Decimal, remark string) (*finance.AdvanceReceipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, shared.ErrNotFound
	}

	allocated, err := s.allocationRepo.SumByReceipt(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum allocations: %w", err)
	}
	receipt.AllocatedAmount = allocated

	if err := receipt.Amend(valueobject.NewMoneyAED(newAmount), remark); err != nil {
		return nil, err
	}

	if err := s.receiptRepo.SaveWithLock(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	s.balanceCache.Invalidate(ctx, receipt.CustomerID)
	s.publishEvents(ctx, receipt)

	return receipt, nil
}

// SettleBilling draws the billing amount from the customer's unspent
// receipts, oldest first. Idempotent: the already-applied total for the
// billing is checked before allocating further, so a retry never
// double-applies. Each receipt's balance is re-read immediately before the
// draw rather than trusted from the planning snapshot.
func (s *AdvanceService) SettleBilling(ctx context.Context, customerID, billingID uuid.UUID, billingTotal decimal.Decimal) (decimal.Decimal, error) {
	if billingTotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Billing total must be positive")
	}

	alreadyApplied, err := s.allocationRepo.SumByBilling(ctx, billingID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check applied total: %w", err)
	}
	remaining := billingTotal.Sub(alreadyApplied)
	if remaining.LessThanOrEqual(decimal.Zero) {
		s.logger.Info("billing already settled, nothing to apply",
			zap.String("billing_id", billingID.String()),
			zap.String("already_applied", alreadyApplied.String()),
		)
		return decimal.Zero, nil
	}

	receipts, err := s.receiptRepo.FindUnspentByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load unspent receipts: %w", err)
	}

	plan, err := s.strategy.PlanForBilling(valueobject.NewMoneyAED(remaining), receipts)
	if err != nil {
		return decimal.Zero, err
	}

	totalApplied := decimal.Zero
	for _, planned := range plan.Allocations {
		if remaining.IsZero() {
			break
		}

		// Fresh read per attempt; the planning snapshot may be stale.
		receipt, err := s.receiptRepo.FindByID(ctx, planned.ReceiptID)
		if err != nil {
			return totalApplied, fmt.Errorf("failed to re-read receipt %s: %w", planned.ReceiptNumber, err)
		}
		if receipt == nil {
			continue
		}

		persistedSum, err := s.allocationRepo.SumByReceipt(ctx, receipt.ID)
		if err != nil {
			return totalApplied, fmt.Errorf("failed to sum allocations for receipt %s: %w", receipt.ReceiptNumber, err)
		}
		if err := receipt.CheckConsistency(persistedSum); err != nil {
			// Over-applied receipt: surface distinctly, do not touch it.
			return totalApplied, err
		}
		receipt.AllocatedAmount = persistedSum

		amount := decimal.Min(remaining, receipt.RemainingBalance())
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocation, err := receipt.Allocate(billingID, valueobject.NewMoneyAED(amount), "")
		if err != nil {
			if errors.Is(err, shared.ErrAllocationInconsistency) {
				return totalApplied, err
			}
			return totalApplied, fmt.Errorf("failed to allocate from receipt %s: %w", receipt.ReceiptNumber, err)
		}

		if err := s.allocationRepo.Save(ctx, allocation); err != nil {
			return totalApplied, fmt.Errorf("failed to save allocation: %w", err)
		}
		if err := s.receiptRepo.SaveWithLock(ctx, receipt); err != nil {
			return totalApplied, fmt.Errorf("failed to save receipt %s: %w", receipt.ReceiptNumber, err)
		}

		s.publishEvents(ctx, receipt)

		remaining = remaining.Sub(amount)
		totalApplied = totalApplied.Add(amount)
	}

	if totalApplied.IsPositive() {
		s.balanceCache.Invalidate(ctx, customerID)
	}

	s.logger.Info("billing settlement from advances",
		zap.String("billing_id", billingID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("total_applied", totalApplied.String()),
		zap.String("unsettled", remaining.String()),
	)

	return totalApplied, nil
}

// AppliedTotal returns the total already allocated against a billing
func (s *AdvanceService) AppliedTotal(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error) {
	return s.allocationRepo.SumByBilling(ctx, billingID)
}

// CustomerBalance returns the customer's total unspent advance balance
func (s *AdvanceService) CustomerBalance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	if cached, ok := s.balanceCache.Get(ctx, customerID); ok {
		return *cached, nil
	}

	balance, err := s.receiptRepo.SumRemainingByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum remaining balances: %w", err)
	}

	s.balanceCache.Set(ctx, customerID, balance)
	return balance, nil
}

// GetReceipt returns a receipt by ID
func (s *AdvanceService) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*finance.AdvanceReceipt, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, shared.ErrNotFound
	}
	return receipt, nil
}

// ListReceipts returns a customer's receipts, newest first
func (s *AdvanceService) ListReceipts(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]finance.AdvanceReceipt, error) {
	return s.receiptRepo.FindByCustomer(ctx, customerID, filter)
}

// ListAllocationsForBilling returns the allocations recorded against a billing
func (s *AdvanceService) ListAllocationsForBilling(ctx context.Context, billingID uuid.UUID) ([]finance.BillingAllocation, error) {
	return s.allocationRepo.FindByBilling(ctx, billingID)
}

func (s *AdvanceService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
