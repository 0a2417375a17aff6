package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

func TestCreditService_UsageFor(t *testing.T) {
	profileRepo := &MockCreditProfileRepository{}
	dueRepo := &MockDueRepository{}
	cache := newFakeCreditCache()
	service := NewCreditService(profileRepo, dueRepo, cache, zap.NewNop())

	customerID := uuid.New()
	profile := &partner.CreditProfile{
		CustomerID:  customerID,
		Kind:        partner.CustomerKindCompany,
		Name:        "Al Noor Trading LLC",
		CreditLimit: dec("5000"),
	}

	profileRepo.On("FindByCustomer", mock.Anything, customerID).Return(profile, nil).Once()
	dueRepo.On("SumOutstandingByCustomer", mock.Anything, customerID).Return(dec("4800"), nil).Once()

	usage, err := service.UsageFor(context.Background(), customerID)
	require.NoError(t, err)

	assert.True(t, usage.CreditLimit.Equal(dec("5000")))
	assert.True(t, usage.TotalOutstanding.Equal(dec("4800")))
	assert.True(t, usage.AvailableCredit().Equal(dec("200")))

	// Second call is served from cache.
	again, err := service.UsageFor(context.Background(), customerID)
	require.NoError(t, err)
	assert.True(t, again.CreditLimit.Equal(dec("5000")))
	profileRepo.AssertNumberOfCalls(t, "FindByCustomer", 1)
}

func TestCreditService_UsageFor_MissingProfileMeansZeroCredit(t *testing.T) {
	profileRepo := &MockCreditProfileRepository{}
	dueRepo := &MockDueRepository{}
	service := NewCreditService(profileRepo, dueRepo, newFakeCreditCache(), zap.NewNop())

	customerID := uuid.New()
	profileRepo.On("FindByCustomer", mock.Anything, customerID).Return(nil, shared.ErrNotFound).Once()
	dueRepo.On("SumOutstandingByCustomer", mock.Anything, customerID).Return(dec("250"), nil).Once()

	usage, err := service.UsageFor(context.Background(), customerID)
	require.NoError(t, err)

	assert.True(t, usage.CreditLimit.IsZero())
	assert.True(t, usage.TotalOutstanding.Equal(dec("250")))
	assert.True(t, usage.AvailableCredit().IsZero())
}

func TestCreditService_UsageFor_PropagatesLookupFailure(t *testing.T) {
	profileRepo := &MockCreditProfileRepository{}
	dueRepo := &MockDueRepository{}
	service := NewCreditService(profileRepo, dueRepo, newFakeCreditCache(), zap.NewNop())

	profileRepo.On("FindByCustomer", mock.Anything, mock.Anything).Return(nil, errors.New("backend unavailable"))

	_, err := service.UsageFor(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCreditService_InvalidateCustomer(t *testing.T) {
	profileRepo := &MockCreditProfileRepository{}
	dueRepo := &MockDueRepository{}
	cache := newFakeCreditCache()
	service := NewCreditService(profileRepo, dueRepo, cache, zap.NewNop())

	customerID := uuid.New()
	profile := &partner.CreditProfile{CustomerID: customerID, Kind: partner.CustomerKindCompany, CreditLimit: dec("1000")}

	profileRepo.On("FindByCustomer", mock.Anything, customerID).Return(profile, nil).Twice()
	dueRepo.On("SumOutstandingByCustomer", mock.Anything, customerID).Return(dec("100"), nil).Twice()

	_, err := service.UsageFor(context.Background(), customerID)
	require.NoError(t, err)

	service.InvalidateCustomer(context.Background(), customerID)

	_, err = service.UsageFor(context.Background(), customerID)
	require.NoError(t, err)
	profileRepo.AssertNumberOfCalls(t, "FindByCustomer", 2)
}
