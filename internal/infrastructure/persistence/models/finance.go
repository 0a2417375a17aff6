package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// DueModel is the persistence model for the Due aggregate root.
type DueModel struct {
	AggregateModel
	DueNumber      string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerName   string                    `gorm:"type:varchar(200);not null"`
	BillingID      uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex"`
	BillingNumber  string                    `gorm:"type:varchar(50);not null"`
	OriginalAmount decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	PaidAmount     decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	DueAmount      decimal.Decimal           `gorm:"type:decimal(18,4);not null;index"`
	Status         finance.DueStatus         `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Priority       finance.DuePriority       `gorm:"type:varchar(10);not null"`
	DueDate        time.Time                 `gorm:"not null;index"`
	PaymentRecords finance.DuePaymentRecords `gorm:"type:jsonb;default:'[]'"`
	Remark         string                    `gorm:"type:text"`
	PaidAt         *time.Time
	OverdueAt      *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DueModel) TableName() string {
	return "dues"
}

// ToDomain converts the persistence model to a domain Due entity.
func (m *DueModel) ToDomain() *finance.Due {
	return &finance.Due{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DueNumber:      m.DueNumber,
		CustomerID:     m.CustomerID,
		CustomerName:   m.CustomerName,
		BillingID:      m.BillingID,
		BillingNumber:  m.BillingNumber,
		OriginalAmount: m.OriginalAmount,
		PaidAmount:     m.PaidAmount,
		DueAmount:      m.DueAmount,
		Status:         m.Status,
		Priority:       m.Priority,
		DueDate:        m.DueDate,
		PaymentRecords: m.PaymentRecords,
		Remark:         m.Remark,
		PaidAt:         m.PaidAt,
		OverdueAt:      m.OverdueAt,
		CancelledAt:    m.CancelledAt,
		CancelReason:   m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Due entity.
func (m *DueModel) FromDomain(d *finance.Due) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.DueNumber = d.DueNumber
	m.CustomerID = d.CustomerID
	m.CustomerName = d.CustomerName
	m.BillingID = d.BillingID
	m.BillingNumber = d.BillingNumber
	m.OriginalAmount = d.OriginalAmount
	m.PaidAmount = d.PaidAmount
	m.DueAmount = d.DueAmount
	m.Status = d.Status
	m.Priority = d.Priority
	m.DueDate = d.DueDate
	m.PaymentRecords = d.PaymentRecords
	m.Remark = d.Remark
	m.PaidAt = d.PaidAt
	m.OverdueAt = d.OverdueAt
	m.CancelledAt = d.CancelledAt
	m.CancelReason = d.CancelReason
}

// DueModelFromDomain creates a new persistence model from a domain Due.
func DueModelFromDomain(d *finance.Due) *DueModel {
	m := &DueModel{}
	m.FromDomain(d)
	return m
}

// AdvanceReceiptModel is the persistence model for the AdvanceReceipt aggregate root.
type AdvanceReceiptModel struct {
	AggregateModel
	ReceiptNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerKind    partner.CustomerKind  `gorm:"type:varchar(20);not null"`
	CustomerName    string                `gorm:"type:varchar(200);not null"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	AllocatedAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentDate     time.Time             `gorm:"not null;index"`
	Method          finance.PaymentMethod `gorm:"type:varchar(30);not null"`
	Remark          string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AdvanceReceiptModel) TableName() string {
	return "advance_receipts"
}

// ToDomain converts the persistence model to a domain AdvanceReceipt entity.
func (m *AdvanceReceiptModel) ToDomain() *finance.AdvanceReceipt {
	return &finance.AdvanceReceipt{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ReceiptNumber:   m.ReceiptNumber,
		CustomerID:      m.CustomerID,
		CustomerKind:    m.CustomerKind,
		CustomerName:    m.CustomerName,
		Amount:          m.Amount,
		AllocatedAmount: m.AllocatedAmount,
		PaymentDate:     m.PaymentDate,
		Method:          m.Method,
		Remark:          m.Remark,
	}
}

// FromDomain populates the persistence model from a domain AdvanceReceipt entity.
func (m *AdvanceReceiptModel) FromDomain(r *finance.AdvanceReceipt) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReceiptNumber = r.ReceiptNumber
	m.CustomerID = r.CustomerID
	m.CustomerKind = r.CustomerKind
	m.CustomerName = r.CustomerName
	m.Amount = r.Amount
	m.AllocatedAmount = r.AllocatedAmount
	m.PaymentDate = r.PaymentDate
	m.Method = r.Method
	m.Remark = r.Remark
}

// AdvanceReceiptModelFromDomain creates a new persistence model from a domain AdvanceReceipt.
func AdvanceReceiptModelFromDomain(r *finance.AdvanceReceipt) *AdvanceReceiptModel {
	m := &AdvanceReceiptModel{}
	m.FromDomain(r)
	return m
}

// BillingAllocationModel is the persistence model for BillingAllocation.
type BillingAllocationModel struct {
	BaseModel
	ReceiptID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillingID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AppliedAt time.Time       `gorm:"not null"`
	Remark    string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BillingAllocationModel) TableName() string {
	return "billing_allocations"
}

// ToDomain converts the persistence model to a domain BillingAllocation.
func (m *BillingAllocationModel) ToDomain() *finance.BillingAllocation {
	return &finance.BillingAllocation{
		BaseEntity: m.BaseModel.ToDomain(),
		ReceiptID:  m.ReceiptID,
		BillingID:  m.BillingID,
		Amount:     m.Amount,
		AppliedAt:  m.AppliedAt,
		Remark:     m.Remark,
	}
}

// FromDomain populates the persistence model from a domain BillingAllocation.
func (m *BillingAllocationModel) FromDomain(a *finance.BillingAllocation) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.ReceiptID = a.ReceiptID
	m.BillingID = a.BillingID
	m.Amount = a.Amount
	m.AppliedAt = a.AppliedAt
	m.Remark = a.Remark
}

// BillingAllocationModelFromDomain creates a new persistence model from domain.
func BillingAllocationModelFromDomain(a *finance.BillingAllocation) *BillingAllocationModel {
	m := &BillingAllocationModel{}
	m.FromDomain(a)
	return m
}
