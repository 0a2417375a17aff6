package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/partner"
)

// CreditProfileModel is the GORM model for the customer credit terms the
// billing core reads. Customer master data is owned elsewhere; this table
// mirrors only what credit evaluation needs.
type CreditProfileModel struct {
	CustomerID  uuid.UUID       `gorm:"type:uuid;primary_key"`
	Kind        string          `gorm:"type:varchar(20);not null"`
	Name        string          `gorm:"type:varchar(200);not null"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for CreditProfileModel
func (CreditProfileModel) TableName() string {
	return "credit_profiles"
}

// ToDomain converts the model to a domain credit profile
func (m *CreditProfileModel) ToDomain() *partner.CreditProfile {
	return &partner.CreditProfile{
		CustomerID:  m.CustomerID,
		Kind:        partner.CustomerKind(m.Kind),
		Name:        m.Name,
		CreditLimit: m.CreditLimit,
	}
}

// CreditProfileModelFromDomain converts a domain credit profile to a model
func CreditProfileModelFromDomain(profile *partner.CreditProfile) *CreditProfileModel {
	return &CreditProfileModel{
		CustomerID:  profile.CustomerID,
		Kind:        string(profile.Kind),
		Name:        profile.Name,
		CreditLimit: profile.CreditLimit,
	}
}
