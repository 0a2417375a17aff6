package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/infrastructure/persistence/models"
)

// GormAllocationRepository implements AllocationRepository using GORM.
// Allocation rows are append-only; the sums they yield are the authoritative
// settlement totals on both the receipt and the billing side.
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// Save persists an allocation record
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *finance.BillingAllocation) error {
	model := models.BillingAllocationModelFromDomain(allocation)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByBilling finds allocations recorded against a billing
func (r *GormAllocationRepository) FindByBilling(ctx context.Context, billingID uuid.UUID) ([]finance.BillingAllocation, error) {
	var allocationModels []models.BillingAllocationModel
	if err := r.db.WithContext(ctx).
		Where("billing_id = ?", billingID).
		Order("applied_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	allocations := make([]finance.BillingAllocation, len(allocationModels))
	for i, model := range allocationModels {
		allocations[i] = *model.ToDomain()
	}
	return allocations, nil
}

// FindByReceipt finds allocations drawn from a receipt
func (r *GormAllocationRepository) FindByReceipt(ctx context.Context, receiptID uuid.UUID) ([]finance.BillingAllocation, error) {
	var allocationModels []models.BillingAllocationModel
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("applied_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	allocations := make([]finance.BillingAllocation, len(allocationModels))
	for i, model := range allocationModels {
		allocations[i] = *model.ToDomain()
	}
	return allocations, nil
}

// SumByBilling totals the allocations already applied to a billing
func (r *GormAllocationRepository) SumByBilling(ctx context.Context, billingID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.BillingAllocationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("billing_id = ?", billingID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumByReceipt totals the allocations drawn from a receipt
func (r *GormAllocationRepository) SumByReceipt(ctx context.Context, receiptID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.BillingAllocationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("receipt_id = ?", receiptID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ finance.AllocationRepository = (*GormAllocationRepository)(nil)
