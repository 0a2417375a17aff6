package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/tasheel/backend/internal/domain/shared"
)

// BillingRepository persists billing aggregates
type BillingRepository interface {
	shared.Repository[Billing]

	// FindByNumber finds a billing by its billing number
	FindByNumber(ctx context.Context, billingNumber string) (*Billing, error)

	// FindByCustomer returns billings for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Billing, error)

	// SaveWithLock saves with optimistic lock checking on Version
	SaveWithLock(ctx context.Context, b *Billing) error

	// ExistsByNumber checks if a billing number is already taken
	ExistsByNumber(ctx context.Context, billingNumber string) (bool, error)

	// NextBillingNumber generates the next sequential billing number
	NextBillingNumber(ctx context.Context) (string, error)
}
