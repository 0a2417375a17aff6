package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/strategy"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// SettlementStrategyType defines how advance receipts are chosen for a billing
type SettlementStrategyType string

const (
	SettlementStrategyTypeFIFO   SettlementStrategyType = "FIFO"   // Oldest receipts first by creation order
	SettlementStrategyTypeManual SettlementStrategyType = "MANUAL" // Caller-specified receipts in order
)

// IsValid checks if the strategy type is valid
func (t SettlementStrategyType) IsValid() bool {
	switch t {
	case SettlementStrategyTypeFIFO, SettlementStrategyTypeManual:
		return true
	}
	return false
}

// String returns the string representation
func (t SettlementStrategyType) String() string {
	return string(t)
}

// AllSettlementStrategyTypes returns all valid settlement strategy types
func AllSettlementStrategyTypes() []SettlementStrategyType {
	return []SettlementStrategyType{
		SettlementStrategyTypeFIFO,
		SettlementStrategyTypeManual,
	}
}

// SettlementSource is a receipt balance available for settlement
type SettlementSource struct {
	ReceiptID        uuid.UUID       // ID of the advance receipt
	ReceiptNumber    string          // Number for display purposes
	RemainingBalance decimal.Decimal // Balance still unspent
	CreatedAt        time.Time       // Creation order for FIFO
}

// PlannedAllocation is one planned draw from a receipt
type PlannedAllocation struct {
	ReceiptID     uuid.UUID       // Receipt to draw from
	ReceiptNumber string          // Receipt number
	Amount        decimal.Decimal // Amount to apply
}

// SettlementPlan is the complete result of planning a billing settlement
type SettlementPlan struct {
	Allocations       []PlannedAllocation // Draws to record, in order
	TotalApplied      decimal.Decimal     // Total amount the plan applies
	RemainingBilling  decimal.Decimal     // Billing amount left unsettled
	FullySettled      bool                // True if the whole billing amount is covered
	ReceiptsExhausted []uuid.UUID         // Receipts the plan drains completely
	ReceiptsPartial   []uuid.UUID         // Receipts the plan draws from partially
}

// SettlementStrategy plans how a billing amount is drawn from receipt balances
type SettlementStrategy interface {
	strategy.Strategy
	// StrategyType returns the settlement strategy type
	StrategyType() SettlementStrategyType
	// Plan calculates how to draw the billing amount from the given sources
	Plan(billingAmount valueobject.Money, sources []SettlementSource) (*SettlementPlan, error)
	// PlanForBilling plans a settlement from the customer's unspent receipts
	PlanForBilling(billingAmount valueobject.Money, receipts []AdvanceReceipt) (*SettlementPlan, error)
}

// FIFOSettlementStrategy draws from the oldest unspent receipts first,
// in creation order.
type FIFOSettlementStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOSettlementStrategy creates a new FIFO settlement strategy
func NewFIFOSettlementStrategy() *FIFOSettlementStrategy {
	return &FIFOSettlementStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo_settlement",
			strategy.StrategyTypeAllocation,
			"FIFO settlement strategy - draws from the oldest unspent receipts first by creation date",
		),
	}
}

// StrategyType returns the settlement strategy type
func (s *FIFOSettlementStrategy) StrategyType() SettlementStrategyType {
	return SettlementStrategyTypeFIFO
}

// Plan draws the billing amount from sources oldest first
func (s *FIFOSettlementStrategy) Plan(billingAmount valueobject.Money, sources []SettlementSource) (*SettlementPlan, error) {
	if billingAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Billing amount must be positive")
	}
	if len(sources) == 0 {
		return emptyPlan(billingAmount.Amount()), nil
	}

	sorted := make([]SettlementSource, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	allocations := make([]PlannedAllocation, 0)
	exhausted := make([]uuid.UUID, 0)
	partial := make([]uuid.UUID, 0)
	remaining := billingAmount.Amount()
	totalApplied := decimal.Zero

	for _, source := range sorted {
		if remaining.IsZero() {
			break
		}
		if source.RemainingBalance.LessThanOrEqual(decimal.Zero) {
			continue
		}

		amount := decimal.Min(remaining, source.RemainingBalance)

		allocations = append(allocations, PlannedAllocation{
			ReceiptID:     source.ReceiptID,
			ReceiptNumber: source.ReceiptNumber,
			Amount:        amount,
		})

		totalApplied = totalApplied.Add(amount)
		remaining = remaining.Sub(amount)

		if amount.GreaterThanOrEqual(source.RemainingBalance) {
			exhausted = append(exhausted, source.ReceiptID)
		} else {
			partial = append(partial, source.ReceiptID)
		}
	}

	return &SettlementPlan{
		Allocations:       allocations,
		TotalApplied:      totalApplied,
		RemainingBilling:  remaining,
		FullySettled:      remaining.IsZero(),
		ReceiptsExhausted: exhausted,
		ReceiptsPartial:   partial,
	}, nil
}

// PlanForBilling plans a settlement from the customer's unspent receipts
func (s *FIFOSettlementStrategy) PlanForBilling(billingAmount valueobject.Money, receipts []AdvanceReceipt) (*SettlementPlan, error) {
	return s.Plan(billingAmount, receiptsToSources(receipts))
}

// ManualSettlementRequest asks for a draw against a specific receipt.
// A zero amount means "as much as possible".
type ManualSettlementRequest struct {
	ReceiptID uuid.UUID
	Amount    decimal.Decimal
}

// ManualSettlementStrategy draws from caller-specified receipts in order
type ManualSettlementStrategy struct {
	strategy.BaseStrategy
	requests []ManualSettlementRequest
}

// NewManualSettlementStrategy creates a new manual settlement strategy
func NewManualSettlementStrategy(requests []ManualSettlementRequest) *ManualSettlementStrategy {
	return &ManualSettlementStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"manual_settlement",
			strategy.StrategyTypeAllocation,
			"Manual settlement strategy - draws from user-specified receipts in order",
		),
		requests: requests,
	}
}

// StrategyType returns the settlement strategy type
func (s *ManualSettlementStrategy) StrategyType() SettlementStrategyType {
	return SettlementStrategyTypeManual
}

// GetRequests returns the configured draw requests
func (s *ManualSettlementStrategy) GetRequests() []ManualSettlementRequest {
	return s.requests
}

// Plan draws the billing amount from sources per the configured requests
func (s *ManualSettlementStrategy) Plan(billingAmount valueobject.Money, sources []SettlementSource) (*SettlementPlan, error) {
	if billingAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Billing amount must be positive")
	}
	if len(sources) == 0 {
		return emptyPlan(billingAmount.Amount()), nil
	}

	sourceMap := make(map[uuid.UUID]*SettlementSource)
	for i := range sources {
		sourceMap[sources[i].ReceiptID] = &sources[i]
	}

	allocations := make([]PlannedAllocation, 0)
	exhausted := make([]uuid.UUID, 0)
	partial := make([]uuid.UUID, 0)
	remaining := billingAmount.Amount()
	totalApplied := decimal.Zero

	for _, req := range s.requests {
		if remaining.IsZero() {
			break
		}

		source, exists := sourceMap[req.ReceiptID]
		if !exists {
			continue
		}
		if source.RemainingBalance.LessThanOrEqual(decimal.Zero) {
			continue
		}

		var amount decimal.Decimal
		if req.Amount.IsZero() {
			amount = decimal.Min(remaining, source.RemainingBalance)
		} else {
			amount = decimal.Min(req.Amount, remaining)
			amount = decimal.Min(amount, source.RemainingBalance)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		allocations = append(allocations, PlannedAllocation{
			ReceiptID:     source.ReceiptID,
			ReceiptNumber: source.ReceiptNumber,
			Amount:        amount,
		})

		totalApplied = totalApplied.Add(amount)
		remaining = remaining.Sub(amount)

		if amount.GreaterThanOrEqual(source.RemainingBalance) {
			exhausted = append(exhausted, source.ReceiptID)
		} else {
			partial = append(partial, source.ReceiptID)
		}

		source.RemainingBalance = source.RemainingBalance.Sub(amount)
	}

	return &SettlementPlan{
		Allocations:       allocations,
		TotalApplied:      totalApplied,
		RemainingBilling:  remaining,
		FullySettled:      remaining.IsZero(),
		ReceiptsExhausted: exhausted,
		ReceiptsPartial:   partial,
	}, nil
}

// PlanForBilling plans a settlement from the customer's unspent receipts
func (s *ManualSettlementStrategy) PlanForBilling(billingAmount valueobject.Money, receipts []AdvanceReceipt) (*SettlementPlan, error) {
	return s.Plan(billingAmount, receiptsToSources(receipts))
}

func receiptsToSources(receipts []AdvanceReceipt) []SettlementSource {
	sources := make([]SettlementSource, 0, len(receipts))
	for _, r := range receipts {
		if r.HasRemainingBalance() {
			sources = append(sources, SettlementSource{
				ReceiptID:        r.ID,
				ReceiptNumber:    r.ReceiptNumber,
				RemainingBalance: r.RemainingBalance(),
				CreatedAt:        r.CreatedAt,
			})
		}
	}
	return sources
}

func emptyPlan(billingAmount decimal.Decimal) *SettlementPlan {
	return &SettlementPlan{
		Allocations:       make([]PlannedAllocation, 0),
		TotalApplied:      decimal.Zero,
		RemainingBilling:  billingAmount,
		FullySettled:      false,
		ReceiptsExhausted: make([]uuid.UUID, 0),
		ReceiptsPartial:   make([]uuid.UUID, 0),
	}
}

// SettlementStrategyFactory creates settlement strategies
type SettlementStrategyFactory struct{}

// NewSettlementStrategyFactory creates a new factory
func NewSettlementStrategyFactory() *SettlementStrategyFactory {
	return &SettlementStrategyFactory{}
}

// CreateFIFOStrategy creates a FIFO settlement strategy
func (f *SettlementStrategyFactory) CreateFIFOStrategy() *FIFOSettlementStrategy {
	return NewFIFOSettlementStrategy()
}

// CreateManualStrategy creates a manual settlement strategy with the given requests
func (f *SettlementStrategyFactory) CreateManualStrategy(requests []ManualSettlementRequest) *ManualSettlementStrategy {
	return NewManualSettlementStrategy(requests)
}

// GetStrategy returns a strategy by type
func (f *SettlementStrategyFactory) GetStrategy(strategyType SettlementStrategyType, requests []ManualSettlementRequest) (SettlementStrategy, error) {
	switch strategyType {
	case SettlementStrategyTypeFIFO:
		return f.CreateFIFOStrategy(), nil
	case SettlementStrategyTypeManual:
		if len(requests) == 0 {
			return nil, shared.NewDomainError("INVALID_REQUESTS", "Manual strategy requires draw requests")
		}
		return f.CreateManualStrategy(requests), nil
	default:
		return nil, shared.NewDomainError("INVALID_STRATEGY", "Unknown settlement strategy type")
	}
}
