package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/infrastructure/persistence/models"
)

// GormCreditProfileRepository implements CreditProfileRepository using GORM
type GormCreditProfileRepository struct {
	db *gorm.DB
}

// NewGormCreditProfileRepository creates a new GormCreditProfileRepository
func NewGormCreditProfileRepository(db *gorm.DB) *GormCreditProfileRepository {
	return &GormCreditProfileRepository{db: db}
}

// FindByCustomer returns the credit profile for a customer
func (r *GormCreditProfileRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*partner.CreditProfile, error) {
	var model models.CreditProfileModel
	if err := r.db.WithContext(ctx).
		First(&model, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes a credit profile, replacing any existing row for the
// customer. Used when the hosted backend pushes credit term changes.
func (r *GormCreditProfileRepository) Save(ctx context.Context, profile *partner.CreditProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	model := models.CreditProfileModelFromDomain(profile)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Ensure GormCreditProfileRepository implements CreditProfileRepository
var _ partner.CreditProfileRepository = (*GormCreditProfileRepository)(nil)
