package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/billing"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// BillingModel is the persistence model for the Billing aggregate root.
type BillingModel struct {
	AggregateModel
	BillingNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerKind  partner.CustomerKind   `gorm:"type:varchar(20);not null"`
	CustomerName  string                 `gorm:"type:varchar(200);not null"`
	BillingDate   time.Time              `gorm:"not null;index"`
	Items         billing.ServiceCharges `gorm:"type:jsonb;default:'[]'"`
	Discount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	VendorCost    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	VATPercentage decimal.Decimal        `gorm:"type:decimal(8,4);not null"`
	VATMode       billing.VATMode        `gorm:"type:varchar(20);not null"`
	Status        billing.BillingStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Remark        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BillingModel) TableName() string {
	return "billings"
}

// ToDomain converts the persistence model to a domain Billing entity.
func (m *BillingModel) ToDomain() *billing.Billing {
	b := &billing.Billing{
		BillingNumber: m.BillingNumber,
		CustomerID:    m.CustomerID,
		CustomerKind:  m.CustomerKind,
		CustomerName:  m.CustomerName,
		BillingDate:   m.BillingDate,
		Items:         []billing.ServiceCharge(m.Items),
		Discount:      m.Discount,
		VendorCost:    m.VendorCost,
		VATPercentage: m.VATPercentage,
		VATMode:       m.VATMode,
		Status:        m.Status,
		Remark:        m.Remark,
	}
	b.BaseAggregateRoot = shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
	return b
}

// FromDomain populates the persistence model from a domain Billing entity.
func (m *BillingModel) FromDomain(b *billing.Billing) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.BillingNumber = b.BillingNumber
	m.CustomerID = b.CustomerID
	m.CustomerKind = b.CustomerKind
	m.CustomerName = b.CustomerName
	m.BillingDate = b.BillingDate
	m.Items = billing.ServiceCharges(b.Items)
	m.Discount = b.Discount
	m.VendorCost = b.VendorCost
	m.VATPercentage = b.VATPercentage
	m.VATMode = b.VATMode
	m.Status = b.Status
	m.Remark = b.Remark
}

// BillingModelFromDomain creates a new persistence model from a domain Billing.
func BillingModelFromDomain(b *billing.Billing) *BillingModel {
	m := &BillingModel{}
	m.FromDomain(b)
	return m
}
