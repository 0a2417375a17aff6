package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheque:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// BillingAllocation links part of a receipt's balance to one billing.
// It mutates neither side beyond the recorded amount; receipt balances and
// billing settlement totals are derived by summing allocations.
type BillingAllocation struct {
	shared.BaseEntity
	ReceiptID uuid.UUID       `json:"receipt_id"`
	BillingID uuid.UUID       `json:"billing_id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt time.Time       `json:"applied_at"`
	Remark    string          `json:"remark,omitempty"`
}

// AdvanceReceipt is an aggregate root for a customer prepayment consumable
// against future billings. The remaining balance only decreases through
// allocation; the amount changes only through an explicit amendment that
// re-validates already recorded allocations.
type AdvanceReceipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber   string               `json:"receipt_number"`
	CustomerID      uuid.UUID            `json:"customer_id"`
	CustomerKind    partner.CustomerKind `json:"customer_kind"`
	CustomerName    string               `json:"customer_name"`
	Amount          decimal.Decimal      `json:"amount"`
	AllocatedAmount decimal.Decimal      `json:"allocated_amount"`
	PaymentDate     time.Time            `json:"payment_date"`
	Method          PaymentMethod        `json:"method"`
	Remark          string               `json:"remark"`
}

// NewAdvanceReceipt records a new advance payment
func NewAdvanceReceipt(
	receiptNumber string,
	customerID uuid.UUID,
	customerKind partner.CustomerKind,
	customerName string,
	amount valueobject.Money,
	paymentDate time.Time,
	method PaymentMethod,
	remark string,
) (*AdvanceReceipt, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !customerKind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_KIND", "Customer kind is not valid")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	r := &AdvanceReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		CustomerID:        customerID,
		CustomerKind:      customerKind,
		CustomerName:      customerName,
		Amount:            amount.Amount(),
		AllocatedAmount:   decimal.Zero,
		PaymentDate:       paymentDate,
		Method:            method,
		Remark:            remark,
	}

	r.AddDomainEvent(NewAdvanceReceiptRecordedEvent(r))

	return r, nil
}

// RemainingBalance returns amount - allocated
func (r *AdvanceReceipt) RemainingBalance() decimal.Decimal {
	return r.Amount.Sub(r.AllocatedAmount)
}

// HasRemainingBalance returns true if anything is left to allocate
func (r *AdvanceReceipt) HasRemainingBalance() bool {
	return r.RemainingBalance().IsPositive()
}

// IsOverApplied returns true if recorded allocations exceed the amount.
// This state can only arise through an inconsistent amendment and must be
// surfaced, never silently corrected.
func (r *AdvanceReceipt) IsOverApplied() bool {
	return r.AllocatedAmount.GreaterThan(r.Amount)
}

// Allocate applies part of the remaining balance to a billing and returns
// the allocation record to persist.
func (r *AdvanceReceipt) Allocate(billingID uuid.UUID, amount valueobject.Money, remark string) (*BillingAllocation, error) {
	if billingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BILLING", "Billing ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	if r.IsOverApplied() {
		return nil, shared.ErrAllocationInconsistency
	}
	if amount.Amount().GreaterThan(r.RemainingBalance()) {
		return nil, shared.NewDomainError("EXCEEDS_BALANCE",
			fmt.Sprintf("Allocation amount %s exceeds remaining balance %s", amount.StringFixed(2), r.RemainingBalance().StringFixed(2)))
	}

	allocation := &BillingAllocation{
		BaseEntity: shared.NewBaseEntity(),
		ReceiptID:  r.ID,
		BillingID:  billingID,
		Amount:     amount.Amount(),
		AppliedAt:  time.Now(),
		Remark:     remark,
	}

	r.AllocatedAmount = r.AllocatedAmount.Add(amount.Amount())
	r.MarkUpdated()
	r.IncrementVersion()

	r.AddDomainEvent(NewAdvanceAllocatedEvent(r, allocation))

	return allocation, nil
}

// Amend corrects the receipt amount. Reducing the amount below what has
// already been allocated is rejected with the allocation inconsistency
// error so the caller can offer a targeted correction flow.
func (r *AdvanceReceipt) Amend(newAmount valueobject.Money, remark string) error {
	if newAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	if newAmount.Amount().LessThan(r.AllocatedAmount) {
		return shared.ErrAllocationInconsistency.WithDetails(fmt.Sprintf(
			"allocated %s exceeds revised amount %s",
			r.AllocatedAmount.StringFixed(2), newAmount.StringFixed(2)))
	}

	previousAmount := r.Amount
	r.Amount = newAmount.Amount()
	if remark != "" {
		r.Remark = remark
	}
	r.MarkUpdated()
	r.IncrementVersion()

	r.AddDomainEvent(NewAdvanceReceiptAmendedEvent(r, previousAmount))

	return nil
}

// CheckConsistency compares the receipt amount against the authoritative sum
// of persisted allocations. Used after amendments and during settlement to
// detect over-application that slipped past the in-memory guard.
func (r *AdvanceReceipt) CheckConsistency(persistedAllocationSum decimal.Decimal) error {
	if persistedAllocationSum.GreaterThan(r.Amount) {
		return shared.ErrAllocationInconsistency.WithDetails(fmt.Sprintf(
			"receipt %s: allocations total %s against amount %s",
			r.ReceiptNumber, persistedAllocationSum.StringFixed(2), r.Amount.StringFixed(2)))
	}
	return nil
}

// GetAmountMoney returns the receipt amount as Money
func (r *AdvanceReceipt) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyAED(r.Amount)
}

// GetRemainingBalanceMoney returns the remaining balance as Money
func (r *AdvanceReceipt) GetRemainingBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyAED(r.RemainingBalance())
}
