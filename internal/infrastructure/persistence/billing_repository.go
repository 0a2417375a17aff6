package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/billing"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/infrastructure/persistence/models"
)

// GormBillingRepository implements BillingRepository using GORM
type GormBillingRepository struct {
	db *gorm.DB
}

// NewGormBillingRepository creates a new GormBillingRepository
func NewGormBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

// FindByID finds a billing by its ID
func (r *GormBillingRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Billing, error) {
	var model models.BillingModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds billings matching the filter
func (r *GormBillingRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Billing, error) {
	var billingModels []models.BillingModel
	query := r.db.WithContext(ctx).Model(&models.BillingModel{})
	query = applyBillingFilter(query, filter)

	if err := query.Find(&billingModels).Error; err != nil {
		return nil, err
	}
	billings := make([]billing.Billing, len(billingModels))
	for i, model := range billingModels {
		billings[i] = *model.ToDomain()
	}
	return billings, nil
}

// Save creates or updates a billing
func (r *GormBillingRepository) Save(ctx context.Context, b *billing.Billing) error {
	model := models.BillingModelFromDomain(b)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormBillingRepository) SaveWithLock(ctx context.Context, b *billing.Billing) error {
	model := models.BillingModelFromDomain(b)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", b.ID, b.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Delete deletes a billing
func (r *GormBillingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BillingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts billings matching the filter
func (r *GormBillingRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BillingModel{})
	query = applyBillingSearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByNumber finds a billing by its billing number
func (r *GormBillingRepository) FindByNumber(ctx context.Context, billingNumber string) (*billing.Billing, error) {
	var model models.BillingModel
	if err := r.db.WithContext(ctx).
		Where("billing_number = ?", billingNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds a customer's billings
func (r *GormBillingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]billing.Billing, error) {
	var billingModels []models.BillingModel
	query := r.db.WithContext(ctx).Model(&models.BillingModel{}).
		Where("customer_id = ?", customerID)
	query = applyBillingFilter(query, filter)

	if err := query.Find(&billingModels).Error; err != nil {
		return nil, err
	}
	billings := make([]billing.Billing, len(billingModels))
	for i, model := range billingModels {
		billings[i] = *model.ToDomain()
	}
	return billings, nil
}

// ExistsByNumber checks if a billing number exists
func (r *GormBillingRepository) ExistsByNumber(ctx context.Context, billingNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BillingModel{}).
		Where("billing_number = ?", billingNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// NextBillingNumber generates a unique billing number
func (r *GormBillingRepository) NextBillingNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.BillingModel{}, "billing_number", "BIL")
}

func applyBillingFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applyBillingSearch(query, filter)

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

func applyBillingSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("billing_number ILIKE ? OR customer_name ILIKE ?", searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	return query
}

// nextDocumentNumber generates the next sequential number for a document type.
// Format: PREFIX-YYYYMMDD-XXXXX, resetting daily.
func nextDocumentNumber(db *gorm.DB, model interface{}, column, prefix string) (string, error) {
	date := time.Now().Format("20060102")
	fullPrefix := fmt.Sprintf("%s-%s-", prefix, date)

	var maxNumber string
	if err := db.
		Model(model).
		Select(column).
		Where(column+" LIKE ?", fullPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", fullPrefix, nextNum), nil
}

// Ensure GormBillingRepository implements BillingRepository
var _ billing.BillingRepository = (*GormBillingRepository)(nil)
