package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/infrastructure/persistence/models"
)

// GormAdvanceReceiptRepository implements AdvanceReceiptRepository using GORM
type GormAdvanceReceiptRepository struct {
	db *gorm.DB
}

// NewGormAdvanceReceiptRepository creates a new GormAdvanceReceiptRepository
func NewGormAdvanceReceiptRepository(db *gorm.DB) *GormAdvanceReceiptRepository {
	return &GormAdvanceReceiptRepository{db: db}
}

// FindByID finds an advance receipt by its ID
func (r *GormAdvanceReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.AdvanceReceipt, error) {
	var model models.AdvanceReceiptModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds advance receipts matching the filter
func (r *GormAdvanceReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.AdvanceReceipt, error) {
	var receiptModels []models.AdvanceReceiptModel
	query := r.db.WithContext(ctx).Model(&models.AdvanceReceiptModel{})
	query = applyReceiptFilter(query, filter)

	if err := query.Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]finance.AdvanceReceipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// Save creates or updates an advance receipt
func (r *GormAdvanceReceiptRepository) Save(ctx context.Context, receipt *finance.AdvanceReceipt) error {
	model := models.AdvanceReceiptModelFromDomain(receipt)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormAdvanceReceiptRepository) SaveWithLock(ctx context.Context, receipt *finance.AdvanceReceipt) error {
	model := models.AdvanceReceiptModelFromDomain(receipt)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", receipt.ID, receipt.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Delete deletes an advance receipt
func (r *GormAdvanceReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AdvanceReceiptModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts advance receipts matching the filter
func (r *GormAdvanceReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AdvanceReceiptModel{})
	query = applyReceiptSearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByNumber finds an advance receipt by its receipt number
func (r *GormAdvanceReceiptRepository) FindByNumber(ctx context.Context, receiptNumber string) (*finance.AdvanceReceipt, error) {
	var model models.AdvanceReceiptModel
	if err := r.db.WithContext(ctx).
		Where("receipt_number = ?", receiptNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnspentByCustomer finds a customer's receipts that still carry balance,
// oldest first. This ordering is what makes settlement drain FIFO.
func (r *GormAdvanceReceiptRepository) FindUnspentByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.AdvanceReceipt, error) {
	var receiptModels []models.AdvanceReceiptModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND allocated_amount < amount", customerID).
		Order("created_at ASC").
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]finance.AdvanceReceipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// FindByCustomer finds a customer's advance receipts
func (r *GormAdvanceReceiptRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]finance.AdvanceReceipt, error) {
	var receiptModels []models.AdvanceReceiptModel
	query := r.db.WithContext(ctx).Model(&models.AdvanceReceiptModel{}).
		Where("customer_id = ?", customerID)
	query = applyReceiptFilter(query, filter)

	if err := query.Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]finance.AdvanceReceipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// SumRemainingByCustomer calculates a customer's total unspent advance balance
func (r *GormAdvanceReceiptRepository) SumRemainingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.AdvanceReceiptModel{}).
		Select("COALESCE(SUM(amount - allocated_amount), 0) as total").
		Where("customer_id = ? AND allocated_amount < amount", customerID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// NextReceiptNumber generates a unique receipt number
func (r *GormAdvanceReceiptRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.AdvanceReceiptModel{}, "receipt_number", "ADV")
}

func applyReceiptFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applyReceiptSearch(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

func applyReceiptSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("receipt_number ILIKE ? OR customer_name ILIKE ?", searchPattern, searchPattern)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if method, ok := filter.Filters["method"]; ok {
		query = query.Where("method = ?", method)
	}
	return query
}

// Ensure GormAdvanceReceiptRepository implements AdvanceReceiptRepository
var _ finance.AdvanceReceiptRepository = (*GormAdvanceReceiptRepository)(nil)
