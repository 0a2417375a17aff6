package finance

import (
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

// CreditUsage is a derived, non-persisted snapshot of a company customer's
// credit position at evaluation time.
type CreditUsage struct {
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// AvailableCredit returns max(0, creditLimit - totalOutstanding)
func (u CreditUsage) AvailableCredit() decimal.Decimal {
	available := u.CreditLimit.Sub(u.TotalOutstanding)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// IsOverLimit returns true if outstanding already exceeds the limit
func (u CreditUsage) IsOverLimit() bool {
	return u.TotalOutstanding.GreaterThan(u.CreditLimit)
}

// CreditDecision splits a new charge between credit cover and receivable.
// Invariant: PaidByCredit + DueAmount == the evaluated charge total, exactly.
type CreditDecision struct {
	PaidByCredit decimal.Decimal `json:"paid_by_credit"`
	DueAmount    decimal.Decimal `json:"due_amount"`
}

// RequiresDue returns true if a Due record must be opened
func (d CreditDecision) RequiresDue() bool {
	return d.DueAmount.IsPositive()
}

// EvaluateCredit decides how much of a new charge the customer's available
// credit absorbs and how much becomes a receivable. Pure; the caller supplies
// the usage snapshot and handles lookup failures (fail-open) itself.
func EvaluateCredit(usage CreditUsage, newChargeTotal decimal.Decimal) (CreditDecision, error) {
	if newChargeTotal.IsNegative() {
		return CreditDecision{}, shared.NewDomainError("INVALID_AMOUNT", "Charge total cannot be negative")
	}

	paidByCredit := decimal.Min(usage.AvailableCredit(), newChargeTotal)
	return CreditDecision{
		PaidByCredit: paidByCredit,
		DueAmount:    newChargeTotal.Sub(paidByCredit),
	}, nil
}
