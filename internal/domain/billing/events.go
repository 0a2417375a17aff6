package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

const (
	EventTypeBillingCreated       = "billing.created"
	EventTypeBillingRecomputed    = "billing.recomputed"
	EventTypeBillingStatusChanged = "billing.status_changed"
)

// BillingCreatedEvent is published when a billing is submitted
type BillingCreatedEvent struct {
	shared.BaseDomainEvent
	BillingNumber string          `json:"billing_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	TotalWithVAT  decimal.Decimal `json:"total_with_vat"`
}

// NewBillingCreatedEvent creates a billing created event
func NewBillingCreatedEvent(b *Billing) *BillingCreatedEvent {
	return &BillingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingCreated, "Billing", b.ID),
		BillingNumber:   b.BillingNumber,
		CustomerID:      b.CustomerID,
		TotalWithVAT:    b.TotalWithVAT(),
	}
}

// BillingRecomputedEvent is published when an existing billing is re-priced.
// Settlement listeners use it to re-check allocations against the new total.
type BillingRecomputedEvent struct {
	shared.BaseDomainEvent
	BillingNumber string          `json:"billing_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PreviousTotal decimal.Decimal `json:"previous_total"`
	NewTotal      decimal.Decimal `json:"new_total"`
}

// NewBillingRecomputedEvent creates a billing recomputed event
func NewBillingRecomputedEvent(b *Billing, previousTotal decimal.Decimal) *BillingRecomputedEvent {
	return &BillingRecomputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingRecomputed, "Billing", b.ID),
		BillingNumber:   b.BillingNumber,
		CustomerID:      b.CustomerID,
		PreviousTotal:   previousTotal,
		NewTotal:        b.TotalWithVAT(),
	}
}

// BillingStatusChangedEvent is published on every status transition
type BillingStatusChangedEvent struct {
	shared.BaseDomainEvent
	BillingNumber  string        `json:"billing_number"`
	PreviousStatus BillingStatus `json:"previous_status"`
	NewStatus      BillingStatus `json:"new_status"`
}

// NewBillingStatusChangedEvent creates a billing status changed event
func NewBillingStatusChangedEvent(b *Billing, previous BillingStatus) *BillingStatusChangedEvent {
	return &BillingStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingStatusChanged, "Billing", b.ID),
		BillingNumber:   b.BillingNumber,
		PreviousStatus:  previous,
		NewStatus:       b.Status,
	}
}
