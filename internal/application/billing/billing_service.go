package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tasheel/backend/internal/domain/billing"
	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
	"github.com/tasheel/backend/internal/infrastructure/lock"
)

// CreditUsageProvider resolves a customer's current credit position
type CreditUsageProvider interface {
	UsageFor(ctx context.Context, customerID uuid.UUID) (finance.CreditUsage, error)
	InvalidateCustomer(ctx context.Context, customerID uuid.UUID)
}

// AdvanceSettler draws a billing amount from the customer's advance receipts
// and returns the total actually applied
type AdvanceSettler interface {
	SettleBilling(ctx context.Context, customerID, billingID uuid.UUID, billingTotal decimal.Decimal) (decimal.Decimal, error)
	AppliedTotal(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error)
}

// Warning codes surfaced alongside a successfully created billing
const (
	WarningCreditLookupFailed      = "CREDIT_LOOKUP_FAILED"
	WarningDueCreationFailed       = "DUE_CREATION_FAILED"
	WarningAllocationFailed        = "ALLOCATION_FAILED"
	WarningAllocationInconsistency = "ALLOCATION_INCONSISTENCY"
	WarningAllocationExceedsTotal  = "ALLOCATION_EXCEEDS_TOTAL"
)

// Warning is a non-blocking issue reported with a successful submission
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServiceLineRequest is one service line of a billing submission
type ServiceLineRequest struct {
	ServiceName          string
	UnitTypingCharge     decimal.Decimal
	UnitGovernmentCharge decimal.Decimal
	Quantity             int
	OverrideTyping       *decimal.Decimal
	OverrideGovernment   *decimal.Decimal
}

// SubmitBillingRequest is a request to submit a new billing
type SubmitBillingRequest struct {
	CustomerID    uuid.UUID
	CustomerKind  partner.CustomerKind
	CustomerName  string
	BillingDate   time.Time
	Items         []ServiceLineRequest
	Discount      decimal.Decimal
	VendorCost    decimal.Decimal
	VATPercentage decimal.Decimal
	VATMode       billing.VATMode
}

// SubmitBillingResult is the outcome of a submission: the created billing,
// the due opened for any uncovered amount, the advance total applied, and
// warnings for issues that did not block creation.
type SubmitBillingResult struct {
	Billing             *billing.Billing
	Due                 *finance.Due
	AppliedFromAdvances decimal.Decimal
	Warnings            []Warning
}

// BillingService orchestrates the submission flow: charge computation,
// credit evaluation, persistence, and advance settlement. The whole
// sequence runs under a per-customer lock so concurrent submissions for
// the same customer cannot race on credit or balance reads.
type BillingService struct {
	billingRepo billing.BillingRepository
	dueRepo     finance.DueRepository
	credit      CreditUsageProvider
	settler     AdvanceSettler
	locks       *lock.CustomerLocks
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(
	billingRepo billing.BillingRepository,
	dueRepo finance.DueRepository,
	credit CreditUsageProvider,
	settler AdvanceSettler,
	locks *lock.CustomerLocks,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		billingRepo: billingRepo,
		dueRepo:     dueRepo,
		credit:      credit,
		settler:     settler,
		locks:       locks,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// Submit creates a billing from a service selection. Validation failures
// abort before anything is persisted; a persistence failure on the billing
// itself aborts entirely. Later steps degrade to warnings: a failed credit
// lookup creates no due (fail-open), and a failed settlement leaves the
// billing valid with the allocation simply absent, compensable by retry.
func (s *BillingService) Submit(ctx context.Context, req SubmitBillingRequest) (*SubmitBillingResult, error) {
	unlock := s.locks.Lock(req.CustomerID)
	defer unlock()

	number, err := s.billingRepo.NextBillingNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate billing number: %w", err)
	}

	b, err := billing.NewBilling(
		number,
		req.CustomerID,
		req.CustomerKind,
		req.CustomerName,
		req.BillingDate,
		toChargeInputs(req.Items),
		req.Discount,
		req.VendorCost,
		req.VATPercentage,
		req.VATMode,
	)
	if err != nil {
		return nil, err
	}

	result := &SubmitBillingResult{
		Billing:             b,
		AppliedFromAdvances: decimal.Zero,
		Warnings:            make([]Warning, 0),
	}
	total := b.TotalWithVAT()

	// Credit evaluation applies to company customers only. A lookup failure
	// must not block billing creation.
	var decision *finance.CreditDecision
	var hasCreditLimit bool
	if req.CustomerKind == partner.CustomerKindCompany {
		usage, err := s.credit.UsageFor(ctx, req.CustomerID)
		if err != nil {
			s.logger.Warn("credit usage lookup failed, proceeding without due",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarningCreditLookupFailed,
				Message: "Credit check unavailable; billing created without a due record",
			})
		} else {
			d, evalErr := finance.EvaluateCredit(usage, total)
			if evalErr != nil {
				return nil, evalErr
			}
			decision = &d
			hasCreditLimit = usage.CreditLimit.IsPositive()
		}
	}

	// The billing itself must persist before anything depends on it.
	if err := s.billingRepo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save billing: %w", err)
	}
	s.publishEvents(ctx, b)

	if decision != nil && decision.RequiresDue() {
		due, err := s.openDue(ctx, b, *decision, hasCreditLimit)
		if err != nil {
			s.logger.Error("failed to open due for billing",
				zap.String("billing_number", b.BillingNumber),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarningDueCreationFailed,
				Message: "Billing created but the due record could not be opened; reconcile manually",
			})
		} else {
			result.Due = due
			s.credit.InvalidateCustomer(ctx, req.CustomerID)
		}
	}

	// A fully discounted billing leaves nothing to settle.
	if total.IsPositive() {
		applied, err := s.settler.SettleBilling(ctx, req.CustomerID, b.ID, total)
		if err != nil {
			code := WarningAllocationFailed
			if errors.Is(err, shared.ErrAllocationInconsistency) {
				code = WarningAllocationInconsistency
			}
			s.logger.Warn("advance settlement failed after billing creation",
				zap.String("billing_number", b.BillingNumber),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings, Warning{Code: code, Message: err.Error()})
		}
		result.AppliedFromAdvances = applied
	}

	s.logger.Info("billing submitted",
		zap.String("billing_number", b.BillingNumber),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("total_with_vat", total.String()),
		zap.String("applied_from_advances", result.AppliedFromAdvances.String()),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// EditBillingRequest is a request to re-price an existing billing
type EditBillingRequest struct {
	BillingID     uuid.UUID
	Items         []ServiceLineRequest
	Discount      decimal.Decimal
	VendorCost    decimal.Decimal
	VATPercentage decimal.Decimal
	VATMode       billing.VATMode
}

// EditBillingResult is the outcome of an edit
type EditBillingResult struct {
	Billing  *billing.Billing
	Warnings []Warning
}

// Edit re-prices a billing. If advances already applied to the billing
// exceed the new total, the edit is rejected with the allocation
// inconsistency error; the caller decides remediation.
func (s *BillingService) Edit(ctx context.Context, req EditBillingRequest) (*EditBillingResult, error) {
	b, err := s.billingRepo.FindByID(ctx, req.BillingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing: %w", err)
	}
	if b == nil {
		return nil, shared.ErrNotFound
	}

	unlock := s.locks.Lock(b.CustomerID)
	defer unlock()

	if err := b.Recompute(
		toChargeInputs(req.Items),
		req.Discount,
		req.VendorCost,
		req.VATPercentage,
		req.VATMode,
	); err != nil {
		return nil, err
	}

	if err := s.billingRepo.SaveWithLock(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save billing: %w", err)
	}
	s.publishEvents(ctx, b)

	result := &EditBillingResult{Billing: b, Warnings: make([]Warning, 0)}

	// Re-check settlement consistency against the new total.
	applied, err := s.settler.AppliedTotal(ctx, b.ID)
	if err != nil {
		result.Warnings = append(result.Warnings, Warning{Code: WarningAllocationFailed, Message: err.Error()})
		return result, nil
	}
	if applied.GreaterThan(b.TotalWithVAT()) {
		result.Warnings = append(result.Warnings, Warning{
			Code: WarningAllocationExceedsTotal,
			Message: fmt.Sprintf("Allocations of %s recorded against this billing exceed its revised total %s",
				applied.StringFixed(2), b.TotalWithVAT().StringFixed(2)),
		})
		return result, nil
	}

	if _, err := s.settler.SettleBilling(ctx, b.CustomerID, b.ID, b.TotalWithVAT()); err != nil {
		code := WarningAllocationFailed
		if errors.Is(err, shared.ErrAllocationInconsistency) {
			code = WarningAllocationInconsistency
		}
		result.Warnings = append(result.Warnings, Warning{Code: code, Message: err.Error()})
	}

	return result, nil
}

// RetrySettlement re-runs advance settlement for a billing whose original
// allocation failed. Idempotent through the settler's applied-total check.
func (s *BillingService) RetrySettlement(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error) {
	b, err := s.billingRepo.FindByID(ctx, billingID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load billing: %w", err)
	}
	if b == nil {
		return decimal.Zero, shared.ErrNotFound
	}

	unlock := s.locks.Lock(b.CustomerID)
	defer unlock()

	return s.settler.SettleBilling(ctx, b.CustomerID, b.ID, b.TotalWithVAT())
}

// GetBilling returns a billing by ID
func (s *BillingService) GetBilling(ctx context.Context, billingID uuid.UUID) (*billing.Billing, error) {
	b, err := s.billingRepo.FindByID(ctx, billingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

// ListBillings returns billings matching the filter
func (s *BillingService) ListBillings(ctx context.Context, filter shared.Filter) ([]billing.Billing, error) {
	return s.billingRepo.FindAll(ctx, filter)
}

// ListCustomerBillings returns a customer's billings, newest first
func (s *BillingService) ListCustomerBillings(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]billing.Billing, error) {
	return s.billingRepo.FindByCustomer(ctx, customerID, filter)
}

// UpdateStatus applies a lifecycle transition to a billing
func (s *BillingService) UpdateStatus(ctx context.Context, billingID uuid.UUID, target billing.BillingStatus, reason string) (*billing.Billing, error) {
	b, err := s.billingRepo.FindByID(ctx, billingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing: %w", err)
	}
	if b == nil {
		return nil, shared.ErrNotFound
	}

	switch target {
	case billing.BillingStatusInProgress:
		err = b.Start()
	case billing.BillingStatusCompleted:
		err = b.Complete()
	case billing.BillingStatusCancelled:
		err = b.Cancel(reason)
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unsupported target status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.billingRepo.SaveWithLock(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save billing: %w", err)
	}
	s.publishEvents(ctx, b)

	return b, nil
}

func (s *BillingService) openDue(ctx context.Context, b *billing.Billing, decision finance.CreditDecision, hasCreditLimit bool) (*finance.Due, error) {
	number, err := s.dueRepo.NextDueNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate due number: %w", err)
	}

	due, err := finance.NewDue(
		number,
		b.CustomerID,
		b.CustomerName,
		b.ID,
		b.BillingNumber,
		valueobject.NewMoneyAED(b.TotalWithVAT()),
		valueobject.NewMoneyAED(decision.PaidByCredit),
		hasCreditLimit,
	)
	if err != nil {
		return nil, err
	}

	if err := s.dueRepo.Save(ctx, due); err != nil {
		return nil, fmt.Errorf("failed to save due: %w", err)
	}
	s.publishEvents(ctx, due)

	return due, nil
}

func (s *BillingService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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

func toChargeInputs(items []ServiceLineRequest) []billing.ChargeInput {
	inputs := make([]billing.ChargeInput, 0, len(items))
	for _, item := range items {
		input := billing.ChargeInput{
			ServiceName:          item.ServiceName,
			UnitTypingCharge:     item.UnitTypingCharge,
			UnitGovernmentCharge: item.UnitGovernmentCharge,
			Quantity:             item.Quantity,
		}
		if item.OverrideTyping != nil || item.OverrideGovernment != nil {
			input.Override = &billing.ChargeOverride{
				TypingCharge:     item.OverrideTyping,
				GovernmentCharge: item.OverrideGovernment,
			}
		}
		inputs = append(inputs, input)
	}
	return inputs
}
