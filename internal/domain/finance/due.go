package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// DueStatus represents the lifecycle state of a due (receivable)
type DueStatus string

const (
	DueStatusPending   DueStatus = "PENDING"   // Nothing collected yet
	DueStatusPartial   DueStatus = "PARTIAL"   // Partially covered, 0 < dueAmount < originalAmount
	DueStatusPaid      DueStatus = "PAID"      // Fully settled, dueAmount = 0
	DueStatusOverdue   DueStatus = "OVERDUE"   // Past due date with dueAmount > 0
	DueStatusCancelled DueStatus = "CANCELLED" // Voided manually
)

// IsValid checks if the status is a valid DueStatus
func (s DueStatus) IsValid() bool {
	switch s {
	case DueStatusPending, DueStatusPartial, DueStatusPaid, DueStatusOverdue, DueStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DueStatus
func (s DueStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the due is in a terminal state
func (s DueStatus) IsTerminal() bool {
	return s == DueStatusPaid || s == DueStatusCancelled
}

// CanRecordPayment returns true if payments can be recorded in this status
func (s DueStatus) CanRecordPayment() bool {
	return s == DueStatusPending || s == DueStatusPartial || s == DueStatusOverdue
}

// DuePriority is a collection priority derived from the open amount
type DuePriority string

const (
	DuePriorityHigh   DuePriority = "HIGH"
	DuePriorityMedium DuePriority = "MEDIUM"
)

// HighPriorityThreshold is the open amount above which a due is high priority
var HighPriorityThreshold = decimal.NewFromInt(10000)

// PriorityFor derives the collection priority from the open amount
func PriorityFor(dueAmount decimal.Decimal) DuePriority {
	if dueAmount.GreaterThan(HighPriorityThreshold) {
		return DuePriorityHigh
	}
	return DuePriorityMedium
}

// Grace periods for due dates. Customers with a credit limit get the longer
// term; walk-in terms are a week.
const (
	CreditTermDays  = 30
	DefaultTermDays = 7
)

// DuePaymentRecord is a payment applied against the due.
// Value object within the Due aggregate, stored as JSONB.
type DuePaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	AppliedAt time.Time       `json:"applied_at"`
	Remark    string          `json:"remark,omitempty"`
}

// DuePaymentRecords implements GORM Scanner/Valuer for JSONB storage
type DuePaymentRecords []DuePaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p DuePaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *DuePaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = DuePaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan DuePaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = DuePaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Due tracks the receivable opened when a billing exceeds a company
// customer's available credit. Linked 1:1 to the originating billing.
type Due struct {
	shared.BaseAggregateRoot
	DueNumber      string            `json:"due_number"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	CustomerName   string            `json:"customer_name"`
	BillingID      uuid.UUID         `json:"billing_id"`
	BillingNumber  string            `json:"billing_number"`
	OriginalAmount decimal.Decimal   `json:"original_amount"` // Full billing total
	PaidAmount     decimal.Decimal   `json:"paid_amount"`     // Credit absorbed + payments recorded
	DueAmount      decimal.Decimal   `json:"due_amount"`      // originalAmount - paidAmount
	Status         DueStatus         `json:"status"`
	Priority       DuePriority       `json:"priority"`
	DueDate        time.Time         `json:"due_date"`
	PaymentRecords DuePaymentRecords `json:"payment_records"`
	Remark         string            `json:"remark"`
	PaidAt         *time.Time        `json:"paid_at"`
	OverdueAt      *time.Time        `json:"overdue_at"`
	CancelledAt    *time.Time        `json:"cancelled_at"`
	CancelReason   string            `json:"cancel_reason"`
}

// NewDue opens a due for the uncovered portion of a billing. paidByCredit is
// the amount the customer's available credit absorbed; the due opens PARTIAL
// when credit covered part of the total, PENDING when it covered nothing.
// Customers holding a credit limit get the 30-day term, others 7 days.
func NewDue(
	dueNumber string,
	customerID uuid.UUID,
	customerName string,
	billingID uuid.UUID,
	billingNumber string,
	originalAmount valueobject.Money,
	paidByCredit valueobject.Money,
	hasCreditLimit bool,
) (*Due, error) {
	if dueNumber == "" {
		return nil, shared.NewDomainError("INVALID_DUE_NUMBER", "Due number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if billingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BILLING", "Billing ID cannot be empty")
	}
	if originalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Original amount must be positive")
	}
	if paidByCredit.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Paid by credit cannot be negative")
	}
	if paidByCredit.Amount().GreaterThanOrEqual(originalAmount.Amount()) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit cover must leave an open amount; no due is needed otherwise")
	}

	dueAmount := originalAmount.Amount().Sub(paidByCredit.Amount())

	status := DueStatusPending
	if paidByCredit.Amount().IsPositive() {
		status = DueStatusPartial
	}

	termDays := DefaultTermDays
	if hasCreditLimit {
		termDays = CreditTermDays
	}

	d := &Due{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DueNumber:         dueNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		BillingID:         billingID,
		BillingNumber:     billingNumber,
		OriginalAmount:    originalAmount.Amount(),
		PaidAmount:        paidByCredit.Amount(),
		DueAmount:         dueAmount,
		Status:            status,
		Priority:          PriorityFor(dueAmount),
		DueDate:           time.Now().AddDate(0, 0, termDays),
		PaymentRecords:    DuePaymentRecords{},
	}

	d.AddDomainEvent(NewDueOpenedEvent(d))

	return d, nil
}

// RecordPayment applies a collected payment against the open amount.
// The status moves forward only: partial while something remains, paid once
// the open amount reaches zero. An overdue due stays overdue until fully
// settled.
func (d *Due) RecordPayment(amount valueobject.Money, method PaymentMethod, remark string) error {
	if !d.Status.CanRecordPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on due in %s status", d.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(d.DueAmount) {
		return shared.NewDomainError("EXCEEDS_DUE", fmt.Sprintf("Payment amount %s exceeds open amount %s", amount.StringFixed(2), d.DueAmount.StringFixed(2)))
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	d.PaymentRecords = append(d.PaymentRecords, DuePaymentRecord{
		ID:        uuid.New(),
		Amount:    amount.Amount(),
		Method:    method,
		AppliedAt: time.Now(),
		Remark:    remark,
	})

	d.PaidAmount = d.PaidAmount.Add(amount.Amount())
	d.DueAmount = d.OriginalAmount.Sub(d.PaidAmount)

	if d.DueAmount.IsZero() {
		now := time.Now()
		d.Status = DueStatusPaid
		d.PaidAt = &now
		d.AddDomainEvent(NewDuePaidEvent(d))
	} else {
		if d.Status != DueStatusOverdue {
			d.Status = DueStatusPartial
		}
		d.AddDomainEvent(NewDuePaymentRecordedEvent(d, amount.Amount()))
	}
	d.Priority = PriorityFor(d.DueAmount)

	d.MarkUpdated()
	d.IncrementVersion()

	return nil
}

// MarkOverdue transitions a past-due record to overdue. No-op error when the
// due is settled, cancelled or not yet past its date.
func (d *Due) MarkOverdue(now time.Time) error {
	if d.Status != DueStatusPending && d.Status != DueStatusPartial {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark due in %s status as overdue", d.Status))
	}
	if !now.After(d.DueDate) {
		return shared.NewDomainError("NOT_PAST_DUE", "Due date has not passed yet")
	}

	d.Status = DueStatusOverdue
	d.OverdueAt = &now
	d.MarkUpdated()
	d.IncrementVersion()

	d.AddDomainEvent(NewDueOverdueEvent(d))

	return nil
}

// Cancel voids the due. Recorded collections block cancellation; the credit
// absorbed at opening does not.
func (d *Due) Cancel(reason string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel due in %s status", d.Status))
	}
	if len(d.PaymentRecords) > 0 {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel due with recorded payments")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	d.Status = DueStatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.DueAmount = decimal.Zero
	d.Priority = PriorityFor(d.DueAmount)
	d.MarkUpdated()
	d.IncrementVersion()

	d.AddDomainEvent(NewDueCancelledEvent(d))

	return nil
}

// GetDueAmountMoney returns the open amount as Money
func (d *Due) GetDueAmountMoney() valueobject.Money {
	return valueobject.NewMoneyAED(d.DueAmount)
}

// IsOverdueCandidate returns true if the due should be swept to overdue
func (d *Due) IsOverdueCandidate(now time.Time) bool {
	return (d.Status == DueStatusPending || d.Status == DueStatusPartial) &&
		now.After(d.DueDate) && d.DueAmount.IsPositive()
}

// DaysOverdue returns the number of days past the due date (0 if not past)
func (d *Due) DaysOverdue(now time.Time) int {
	if !now.After(d.DueDate) {
		return 0
	}
	return int(now.Sub(d.DueDate).Hours() / 24)
}
