package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

// DueRepository persists due aggregates
type DueRepository interface {
	shared.Repository[Due]

	// FindByNumber finds a due by its number
	FindByNumber(ctx context.Context, dueNumber string) (*Due, error)

	// FindByBilling finds the due opened for a billing, nil if none
	FindByBilling(ctx context.Context, billingID uuid.UUID) (*Due, error)

	// FindOutstandingByCustomer returns dues with an open amount, oldest first
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]Due, error)

	// SumOutstandingByCustomer returns the customer's total open due amount
	SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)

	// FindOverdueCandidates returns pending/partial dues whose date has passed
	FindOverdueCandidates(ctx context.Context) ([]Due, error)

	// SaveWithLock saves with optimistic lock checking on Version
	SaveWithLock(ctx context.Context, d *Due) error

	// NextDueNumber generates the next sequential due number
	NextDueNumber(ctx context.Context) (string, error)
}

// AdvanceReceiptRepository persists advance receipt aggregates
type AdvanceReceiptRepository interface {
	shared.Repository[AdvanceReceipt]

	// FindByNumber finds a receipt by its number
	FindByNumber(ctx context.Context, receiptNumber string) (*AdvanceReceipt, error)

	// FindUnspentByCustomer returns receipts with remaining balance in
	// creation order, oldest first
	FindUnspentByCustomer(ctx context.Context, customerID uuid.UUID) ([]AdvanceReceipt, error)

	// FindByCustomer returns all receipts for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]AdvanceReceipt, error)

	// SumRemainingByCustomer returns the customer's total unspent balance
	SumRemainingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)

	// SaveWithLock saves with optimistic lock checking on Version
	SaveWithLock(ctx context.Context, r *AdvanceReceipt) error

	// NextReceiptNumber generates the next sequential receipt number
	NextReceiptNumber(ctx context.Context) (string, error)
}

// AllocationRepository persists receipt-to-billing allocation records
type AllocationRepository interface {
	// Save persists an allocation record
	Save(ctx context.Context, allocation *BillingAllocation) error

	// FindByBilling returns allocations recorded against a billing
	FindByBilling(ctx context.Context, billingID uuid.UUID) ([]BillingAllocation, error)

	// FindByReceipt returns allocations drawn from a receipt
	FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]BillingAllocation, error)

	// SumByBilling returns the total already applied to a billing
	SumByBilling(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error)

	// SumByReceipt returns the total drawn from a receipt
	SumByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error)
}
