package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

const (
	EventTypeDueOpened              = "due.opened"
	EventTypeDuePaymentRecorded     = "due.payment_recorded"
	EventTypeDuePaid                = "due.paid"
	EventTypeDueOverdue             = "due.overdue"
	EventTypeDueCancelled           = "due.cancelled"
	EventTypeAdvanceReceiptRecorded = "advance_receipt.recorded"
	EventTypeAdvanceReceiptAmended  = "advance_receipt.amended"
	EventTypeAdvanceAllocated       = "advance_receipt.allocated"
)

// DueOpenedEvent is published when a due is opened for a billing
type DueOpenedEvent struct {
	shared.BaseDomainEvent
	DueNumber  string          `json:"due_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	BillingID  uuid.UUID       `json:"billing_id"`
	DueAmount  decimal.Decimal `json:"due_amount"`
	Priority   DuePriority     `json:"priority"`
}

// NewDueOpenedEvent creates a due opened event
func NewDueOpenedEvent(d *Due) *DueOpenedEvent {
	return &DueOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDueOpened, "Due", d.ID),
		DueNumber:       d.DueNumber,
		CustomerID:      d.CustomerID,
		BillingID:       d.BillingID,
		DueAmount:       d.DueAmount,
		Priority:        d.Priority,
	}
}

// DuePaymentRecordedEvent is published when a partial payment is recorded
type DuePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	DueNumber     string          `json:"due_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	RemainingDue  decimal.Decimal `json:"remaining_due"`
}

// NewDuePaymentRecordedEvent creates a due payment recorded event
func NewDuePaymentRecordedEvent(d *Due, paymentAmount decimal.Decimal) *DuePaymentRecordedEvent {
	return &DuePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDuePaymentRecorded, "Due", d.ID),
		DueNumber:       d.DueNumber,
		CustomerID:      d.CustomerID,
		PaymentAmount:   paymentAmount,
		RemainingDue:    d.DueAmount,
	}
}

// DuePaidEvent is published when a due is fully settled
type DuePaidEvent struct {
	shared.BaseDomainEvent
	DueNumber  string    `json:"due_number"`
	CustomerID uuid.UUID `json:"customer_id"`
	BillingID  uuid.UUID `json:"billing_id"`
}

// NewDuePaidEvent creates a due paid event
func NewDuePaidEvent(d *Due) *DuePaidEvent {
	return &DuePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDuePaid, "Due", d.ID),
		DueNumber:       d.DueNumber,
		CustomerID:      d.CustomerID,
		BillingID:       d.BillingID,
	}
}

// DueOverdueEvent is published when a due passes its date unpaid
type DueOverdueEvent struct {
	shared.BaseDomainEvent
	DueNumber  string          `json:"due_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	DueAmount  decimal.Decimal `json:"due_amount"`
	Priority   DuePriority     `json:"priority"`
}

// NewDueOverdueEvent creates a due overdue event
func NewDueOverdueEvent(d *Due) *DueOverdueEvent {
	return &DueOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDueOverdue, "Due", d.ID),
		DueNumber:       d.DueNumber,
		CustomerID:      d.CustomerID,
		DueAmount:       d.DueAmount,
		Priority:        d.Priority,
	}
}

// DueCancelledEvent is published when a due is voided
type DueCancelledEvent struct {
	shared.BaseDomainEvent
	DueNumber  string    `json:"due_number"`
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

// NewDueCancelledEvent creates a due cancelled event
func NewDueCancelledEvent(d *Due) *DueCancelledEvent {
	return &DueCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDueCancelled, "Due", d.ID),
		DueNumber:       d.DueNumber,
		CustomerID:      d.CustomerID,
		Reason:          d.CancelReason,
	}
}

// AdvanceReceiptRecordedEvent is published when an advance payment is entered
type AdvanceReceiptRecordedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// NewAdvanceReceiptRecordedEvent creates an advance receipt recorded event
func NewAdvanceReceiptRecordedEvent(r *AdvanceReceipt) *AdvanceReceiptRecordedEvent {
	return &AdvanceReceiptRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceReceiptRecorded, "AdvanceReceipt", r.ID),
		ReceiptNumber:   r.ReceiptNumber,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		Method:          r.Method,
	}
}

// AdvanceReceiptAmendedEvent is published when a receipt amount is corrected.
// Balance caches keyed on the customer must be invalidated on this event.
type AdvanceReceiptAmendedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber  string          `json:"receipt_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
}

// NewAdvanceReceiptAmendedEvent creates an advance receipt amended event
func NewAdvanceReceiptAmendedEvent(r *AdvanceReceipt, previousAmount decimal.Decimal) *AdvanceReceiptAmendedEvent {
	return &AdvanceReceiptAmendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdvanceReceiptAmended, "AdvanceReceipt", r.ID),
		ReceiptNumber:   r.ReceiptNumber,
		CustomerID:      r.CustomerID,
		PreviousAmount:  previousAmount,
		NewAmount:       r.Amount,
	}
}

// AdvanceAllocatedEvent is published when part of a receipt settles a billing
type AdvanceAllocatedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber    string          `json:"receipt_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	BillingID        uuid.UUID       `json:"billing_id"`
	Amount           decimal.Decimal `json:"amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// NewAdvanceAllocatedEvent creates an advance allocated event
func NewAdvanceAllocatedEvent(r *AdvanceReceipt, allocation *BillingAllocation) *AdvanceAllocatedEvent {
	return &AdvanceAllocatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAdvanceAllocated, "AdvanceReceipt", r.ID),
		ReceiptNumber:    r.ReceiptNumber,
		CustomerID:       r.CustomerID,
		BillingID:        allocation.BillingID,
		Amount:           allocation.Amount,
		RemainingBalance: r.RemainingBalance(),
	}
}
