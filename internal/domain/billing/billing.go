package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// BillingStatus represents the lifecycle state of a billing
type BillingStatus string

const (
	BillingStatusPending    BillingStatus = "PENDING"     // submitted, work not started
	BillingStatusInProgress BillingStatus = "IN_PROGRESS" // service work underway
	BillingStatusCompleted  BillingStatus = "COMPLETED"   // service delivered
	BillingStatusCancelled  BillingStatus = "CANCELLED"   // voided before completion
)

// IsValid checks if the status is valid
func (s BillingStatus) IsValid() bool {
	switch s {
	case BillingStatusPending, BillingStatusInProgress, BillingStatusCompleted, BillingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s BillingStatus) IsTerminal() bool {
	return s == BillingStatusCompleted || s == BillingStatusCancelled
}

// CanTransitionTo checks whether a status change is allowed
func (s BillingStatus) CanTransitionTo(target BillingStatus) bool {
	switch s {
	case BillingStatusPending:
		return target == BillingStatusInProgress || target == BillingStatusCancelled
	case BillingStatusInProgress:
		return target == BillingStatusCompleted || target == BillingStatusCancelled
	}
	return false
}

// Billing is the aggregate root for a customer billing: one or more priced
// service lines sharing a discount, vendor cost and VAT treatment.
type Billing struct {
	shared.BaseAggregateRoot
	BillingNumber string
	CustomerID    uuid.UUID
	CustomerKind  partner.CustomerKind
	CustomerName  string
	BillingDate   time.Time
	Items         []ServiceCharge
	Discount      decimal.Decimal // per-billing discount as entered
	VendorCost    decimal.Decimal
	VATPercentage decimal.Decimal
	VATMode       VATMode
	Status        BillingStatus
	Remark        string
}

// NewBilling creates a billing by pricing the given service lines.
// The discount and vendor cost are recorded as entered and split across
// items during computation.
func NewBilling(
	billingNumber string,
	customerID uuid.UUID,
	customerKind partner.CustomerKind,
	customerName string,
	billingDate time.Time,
	inputs []ChargeInput,
	discount, vendorCost, vatPercentage decimal.Decimal,
	vatMode VATMode,
) (*Billing, error) {
	if billingNumber == "" {
		return nil, shared.NewDomainError("INVALID_BILLING_NUMBER", "Billing number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !customerKind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_KIND", "Customer kind is not valid")
	}

	items, err := ComputeMultiCharge(inputs, discount, vendorCost, vatPercentage, vatMode)
	if err != nil {
		return nil, err
	}

	if billingDate.IsZero() {
		billingDate = time.Now()
	}

	b := &Billing{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BillingNumber:     billingNumber,
		CustomerID:        customerID,
		CustomerKind:      customerKind,
		CustomerName:      customerName,
		BillingDate:       billingDate,
		Items:             items,
		Discount:          discount,
		VendorCost:        vendorCost,
		VATPercentage:     vatPercentage,
		VATMode:           vatMode,
		Status:            BillingStatusPending,
	}

	b.AddDomainEvent(NewBillingCreatedEvent(b))
	return b, nil
}

// TotalAmount returns the post-discount, pre-VAT total across all items
func (b *Billing) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.TotalAmount)
	}
	return total
}

// VATAmount returns the total VAT across all items
func (b *Billing) VATAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.VATAmount)
	}
	return total
}

// TotalWithVAT returns the VAT-inclusive total the customer owes
func (b *Billing) TotalWithVAT() decimal.Decimal {
	return SumTotalWithVAT(b.Items)
}

// Recompute re-prices the billing with new lines or terms. Allowed only
// while the billing is not terminal; settlement consistency against already
// applied advances is the caller's responsibility to re-check.
func (b *Billing) Recompute(
	inputs []ChargeInput,
	discount, vendorCost, vatPercentage decimal.Decimal,
	vatMode VATMode,
) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("BILLING_NOT_EDITABLE",
			"Billing in status "+b.Status.String()+" cannot be edited")
	}

	items, err := ComputeMultiCharge(inputs, discount, vendorCost, vatPercentage, vatMode)
	if err != nil {
		return err
	}

	previousTotal := b.TotalWithVAT()

	b.Items = items
	b.Discount = discount
	b.VendorCost = vendorCost
	b.VATPercentage = vatPercentage
	b.VATMode = vatMode
	b.MarkUpdated()

	b.AddDomainEvent(NewBillingRecomputedEvent(b, previousTotal))
	return nil
}

// Start moves the billing from pending to in progress
func (b *Billing) Start() error {
	return b.transitionTo(BillingStatusInProgress)
}

// Complete marks the service work as delivered
func (b *Billing) Complete() error {
	return b.transitionTo(BillingStatusCompleted)
}

// Cancel voids the billing before completion
func (b *Billing) Cancel(reason string) error {
	if err := b.transitionTo(BillingStatusCancelled); err != nil {
		return err
	}
	if reason != "" {
		b.Remark = reason
	}
	return nil
}

func (b *Billing) transitionTo(target BillingStatus) error {
	if !b.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATUS_TRANSITION",
			"Cannot transition billing from "+b.Status.String()+" to "+target.String())
	}
	previous := b.Status
	b.Status = target
	b.MarkUpdated()
	b.AddDomainEvent(NewBillingStatusChangedEvent(b, previous))
	return nil
}

// String returns the string representation of BillingStatus
func (s BillingStatus) String() string {
	return string(s)
}
