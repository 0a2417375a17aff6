package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// =============================================================================
// Mock repositories and collaborators
// =============================================================================

type MockAdvanceReceiptRepository struct {
	mock.Mock
}

func (m *MockAdvanceReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.AdvanceReceipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AdvanceReceipt), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.AdvanceReceipt, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.AdvanceReceipt), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) Save(ctx context.Context, r *finance.AdvanceReceipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockAdvanceReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdvanceReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) FindByNumber(ctx context.Context, receiptNumber string) (*finance.AdvanceReceipt, error) {
	args := m.Called(ctx, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AdvanceReceipt), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) FindUnspentByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.AdvanceReceipt, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]finance.AdvanceReceipt), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]finance.AdvanceReceipt, error) {
	args := m.Called(ctx, customerID, filter)
	return args.Get(0).([]finance.AdvanceReceipt), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) SumRemainingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAdvanceReceiptRepository) SaveWithLock(ctx context.Context, r *finance.AdvanceReceipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockAdvanceReceiptRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) Save(ctx context.Context, allocation *finance.BillingAllocation) error {
	args := m.Called(ctx, allocation)
	return args.Error(0)
}

func (m *MockAllocationRepository) FindByBilling(ctx context.Context, billingID uuid.UUID) ([]finance.BillingAllocation, error) {
	args := m.Called(ctx, billingID)
	return args.Get(0).([]finance.BillingAllocation), args.Error(1)
}

func (m *MockAllocationRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]finance.BillingAllocation, error) {
	args := m.Called(ctx, receiptID)
	return args.Get(0).([]finance.BillingAllocation), args.Error(1)
}

func (m *MockAllocationRepository) SumByBilling(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, billingID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAllocationRepository) SumByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, receiptID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockDueRepository struct {
	mock.Mock
}

func (m *MockDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Due, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Due), args.Error(1)
}

func (m *MockDueRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Due, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.Due), args.Error(1)
}

func (m *MockDueRepository) Save(ctx context.Context, d *finance.Due) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDueRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDueRepository) FindByNumber(ctx context.Context, dueNumber string) (*finance.Due, error) {
	args := m.Called(ctx, dueNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Due), args.Error(1)
}

func (m *MockDueRepository) FindByBilling(ctx context.Context, billingID uuid.UUID) (*finance.Due, error) {
	args := m.Called(ctx, billingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Due), args.Error(1)
}

func (m *MockDueRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.Due, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]finance.Due), args.Error(1)
}

func (m *MockDueRepository) SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDueRepository) FindOverdueCandidates(ctx context.Context) ([]finance.Due, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.Due), args.Error(1)
}

func (m *MockDueRepository) SaveWithLock(ctx context.Context, d *finance.Due) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDueRepository) NextDueNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockCreditProfileRepository struct {
	mock.Mock
}

func (m *MockCreditProfileRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*partner.CreditProfile, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CreditProfile), args.Error(1)
}

func (m *MockCreditProfileRepository) Save(ctx context.Context, profile *partner.CreditProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// =============================================================================
// In-memory cache fakes
// =============================================================================

type fakeBalanceCache struct {
	entries     map[uuid.UUID]decimal.Decimal
	invalidated []uuid.UUID
}

func newFakeBalanceCache() *fakeBalanceCache {
	return &fakeBalanceCache{entries: make(map[uuid.UUID]decimal.Decimal)}
}

func (c *fakeBalanceCache) Get(_ context.Context, customerID uuid.UUID) (*decimal.Decimal, bool) {
	v, ok := c.entries[customerID]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *fakeBalanceCache) Set(_ context.Context, customerID uuid.UUID, balance decimal.Decimal) {
	c.entries[customerID] = balance
}

func (c *fakeBalanceCache) Invalidate(_ context.Context, customerID uuid.UUID) {
	delete(c.entries, customerID)
	c.invalidated = append(c.invalidated, customerID)
}

type fakeCreditCache struct {
	entries     map[uuid.UUID]finance.CreditUsage
	invalidated []uuid.UUID
}

func newFakeCreditCache() *fakeCreditCache {
	return &fakeCreditCache{entries: make(map[uuid.UUID]finance.CreditUsage)}
}

func (c *fakeCreditCache) Get(_ context.Context, customerID uuid.UUID) (*finance.CreditUsage, bool) {
	v, ok := c.entries[customerID]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (c *fakeCreditCache) Set(_ context.Context, customerID uuid.UUID, usage finance.CreditUsage) {
	c.entries[customerID] = usage
}

func (c *fakeCreditCache) Invalidate(_ context.Context, customerID uuid.UUID) {
	delete(c.entries, customerID)
	c.invalidated = append(c.invalidated, customerID)
}
