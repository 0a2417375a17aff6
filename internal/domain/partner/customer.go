package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

// CustomerKind distinguishes company accounts from walk-in individuals.
// Companies may carry a credit limit; individuals always settle from advances
// or direct payment.
type CustomerKind string

const (
	CustomerKindCompany    CustomerKind = "COMPANY"
	CustomerKindIndividual CustomerKind = "INDIVIDUAL"
)

// IsValid checks if the customer kind is valid
func (k CustomerKind) IsValid() bool {
	return k == CustomerKindCompany || k == CustomerKindIndividual
}

// String returns the string representation of CustomerKind
func (k CustomerKind) String() string {
	return string(k)
}

// CreditProfile is the slice of customer master data the billing core needs.
// Customer CRUD itself lives in the hosted backend; only the credit terms are
// read here.
type CreditProfile struct {
	CustomerID  uuid.UUID
	Kind        CustomerKind
	Name        string
	CreditLimit decimal.Decimal
}

// HasCreditLimit returns true if the customer has any credit limit set
func (p *CreditProfile) HasCreditLimit() bool {
	return p.CreditLimit.GreaterThan(decimal.Zero)
}

// Validate checks the profile for internal consistency
func (p *CreditProfile) Validate() error {
	if p.CustomerID == uuid.Nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !p.Kind.IsValid() {
		return shared.NewDomainError("INVALID_CUSTOMER_KIND", "Customer kind is not valid")
	}
	if p.CreditLimit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	return nil
}

// CreditProfileRepository reads customer credit terms from the hosted backend
type CreditProfileRepository interface {
	// FindByCustomer returns the credit profile for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*CreditProfile, error)
	// Save writes a credit profile, replacing any existing one
	Save(ctx context.Context, profile *CreditProfile) error
}
