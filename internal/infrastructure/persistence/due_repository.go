package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/infrastructure/persistence/models"
)

// openDueStatuses are the states that still carry a collectible amount
var openDueStatuses = []finance.DueStatus{
	finance.DueStatusPending,
	finance.DueStatusPartial,
	finance.DueStatusOverdue,
}

// GormDueRepository implements DueRepository using GORM
type GormDueRepository struct {
	db *gorm.DB
}

// NewGormDueRepository creates a new GormDueRepository
func NewGormDueRepository(db *gorm.DB) *GormDueRepository {
	return &GormDueRepository{db: db}
}

// FindByID finds a due by its ID
func (r *GormDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Due, error) {
	var model models.DueModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds dues matching the filter
func (r *GormDueRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.Due, error) {
	var dueModels []models.DueModel
	query := r.db.WithContext(ctx).Model(&models.DueModel{})
	query = applyDueFilter(query, filter)

	if err := query.Find(&dueModels).Error; err != nil {
		return nil, err
	}
	dues := make([]finance.Due, len(dueModels))
	for i, model := range dueModels {
		dues[i] = *model.ToDomain()
	}
	return dues, nil
}

// Save creates or updates a due
func (r *GormDueRepository) Save(ctx context.Context, d *finance.Due) error {
	model := models.DueModelFromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormDueRepository) SaveWithLock(ctx context.Context, d *finance.Due) error {
	model := models.DueModelFromDomain(d)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Delete deletes a due
func (r *GormDueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DueModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts dues matching the filter
func (r *GormDueRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.DueModel{})
	query = applyDueSearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByNumber finds a due by its due number
func (r *GormDueRepository) FindByNumber(ctx context.Context, dueNumber string) (*finance.Due, error) {
	var model models.DueModel
	if err := r.db.WithContext(ctx).
		Where("due_number = ?", dueNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBilling finds the due opened for a billing, nil when none exists
func (r *GormDueRepository) FindByBilling(ctx context.Context, billingID uuid.UUID) (*finance.Due, error) {
	var model models.DueModel
	if err := r.db.WithContext(ctx).
		Where("billing_id = ?", billingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstandingByCustomer finds a customer's open dues, oldest first
func (r *GormDueRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]finance.Due, error) {
	var dueModels []models.DueModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, openDueStatuses).
		Order("created_at ASC").
		Find(&dueModels).Error; err != nil {
		return nil, err
	}
	dues := make([]finance.Due, len(dueModels))
	for i, model := range dueModels {
		dues[i] = *model.ToDomain()
	}
	return dues, nil
}

// SumOutstandingByCustomer calculates the total open amount for a customer.
// This is the outstanding figure credit evaluation runs against.
func (r *GormDueRepository) SumOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DueModel{}).
		Select("COALESCE(SUM(due_amount), 0) as total").
		Where("customer_id = ? AND status IN ?", customerID, openDueStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindOverdueCandidates finds open dues past their due date
func (r *GormDueRepository) FindOverdueCandidates(ctx context.Context) ([]finance.Due, error) {
	var dueModels []models.DueModel
	if err := r.db.WithContext(ctx).
		Where("due_date < ? AND status IN ?", time.Now(),
			[]finance.DueStatus{finance.DueStatusPending, finance.DueStatusPartial}).
		Order("due_date ASC").
		Find(&dueModels).Error; err != nil {
		return nil, err
	}
	dues := make([]finance.Due, len(dueModels))
	for i, model := range dueModels {
		dues[i] = *model.ToDomain()
	}
	return dues, nil
}

// NextDueNumber generates a unique due number
func (r *GormDueRepository) NextDueNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), &models.DueModel{}, "due_number", "DUE")
}

func applyDueFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applyDueSearch(query, filter)

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

func applyDueSearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("due_number ILIKE ? OR customer_name ILIKE ? OR billing_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if priority, ok := filter.Filters["priority"]; ok {
		query = query.Where("priority = ?", priority)
	}
	return query
}

// Ensure GormDueRepository implements DueRepository
var _ finance.DueRepository = (*GormDueRepository)(nil)
