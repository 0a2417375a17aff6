package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
	"github.com/tasheel/backend/internal/domain/shared/valueobject"
)

// AdvanceReceiptModelSQLite is a SQLite-compatible version of AdvanceReceiptModel for testing
type AdvanceReceiptModelSQLite struct {
	ID              string    `gorm:"primaryKey"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	Version         int       `gorm:"not null;default:1"`
	ReceiptNumber   string    `gorm:"uniqueIndex;not null"`
	CustomerID      string    `gorm:"index;not null"`
	CustomerKind    string    `gorm:"not null"`
	CustomerName    string    `gorm:"not null"`
	Amount          string    `gorm:"type:decimal;not null"`
	AllocatedAmount string    `gorm:"type:decimal;not null"`
	PaymentDate     time.Time `gorm:"not null"`
	Method          string    `gorm:"not null"`
	Remark          string
}

func (AdvanceReceiptModelSQLite) TableName() string {
	return "advance_receipts"
}

func setupAdvanceReceiptTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&AdvanceReceiptModelSQLite{})
	require.NoError(t, err)

	return db
}

func newTestReceipt(t *testing.T, number string, customerID uuid.UUID, amount string) *finance.AdvanceReceipt {
	t.Helper()
	receipt, err := finance.NewAdvanceReceipt(
		number,
		customerID,
		partner.CustomerKindCompany,
		"Al Noor Trading LLC",
		valueobject.NewMoneyAED(decimal.RequireFromString(amount)),
		time.Now(),
		finance.PaymentMethodBankTransfer,
		"",
	)
	require.NoError(t, err)
	return receipt
}

func TestGormAdvanceReceiptRepository_SaveAndFind(t *testing.T) {
	db := setupAdvanceReceiptTestDB(t)
	repo := NewGormAdvanceReceiptRepository(db)
	ctx := context.Background()

	t.Run("round trips a receipt", func(t *testing.T) {
		customerID := uuid.New()
		receipt := newTestReceipt(t, "ADV-2025-0001", customerID, "500")

		require.NoError(t, repo.Save(ctx, receipt))

		found, err := repo.FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Equal(t, "ADV-2025-0001", found.ReceiptNumber)
		assert.Equal(t, customerID, found.CustomerID)
		assert.True(t, found.Amount.Equal(decimal.RequireFromString("500")))
		assert.True(t, found.AllocatedAmount.IsZero())
	})

	t.Run("missing receipt yields not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByNumber(ctx, "ADV-2025-9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormAdvanceReceiptRepository_FindUnspentByCustomer(t *testing.T) {
	db := setupAdvanceReceiptTestDB(t)
	repo := NewGormAdvanceReceiptRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	newest := newTestReceipt(t, "ADV-2025-0003", customerID, "300")
	newest.CreatedAt = time.Now()

	oldest := newTestReceipt(t, "ADV-2025-0001", customerID, "100")
	oldest.CreatedAt = time.Now().Add(-48 * time.Hour)

	spent := newTestReceipt(t, "ADV-2025-0002", customerID, "200")
	spent.CreatedAt = time.Now().Add(-24 * time.Hour)
	spent.AllocatedAmount = spent.Amount

	other := newTestReceipt(t, "ADV-2025-0004", uuid.New(), "400")

	for _, r := range []*finance.AdvanceReceipt{newest, oldest, spent, other} {
		require.NoError(t, repo.Save(ctx, r))
	}

	t.Run("returns only unspent receipts, oldest first", func(t *testing.T) {
		receipts, err := repo.FindUnspentByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		assert.Equal(t, "ADV-2025-0001", receipts[0].ReceiptNumber)
		assert.Equal(t, "ADV-2025-0003", receipts[1].ReceiptNumber)
	})

	t.Run("sums remaining balance across unspent receipts", func(t *testing.T) {
		total, err := repo.SumRemainingByCustomer(ctx, customerID)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("400")), "got %s", total)
	})

	t.Run("customer with no receipts has zero balance", func(t *testing.T) {
		total, err := repo.SumRemainingByCustomer(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}

func TestGormAdvanceReceiptRepository_SaveWithLock(t *testing.T) {
	db := setupAdvanceReceiptTestDB(t)
	repo := NewGormAdvanceReceiptRepository(db)
	ctx := context.Background()

	t.Run("persists a version bump", func(t *testing.T) {
		receipt := newTestReceipt(t, "ADV-2025-0010", uuid.New(), "500")
		require.NoError(t, repo.Save(ctx, receipt))

		_, err := receipt.Allocate(uuid.New(), valueobject.NewMoneyAED(decimal.RequireFromString("200")), "")
		require.NoError(t, err)

		require.NoError(t, repo.SaveWithLock(ctx, receipt))

		found, err := repo.FindByID(ctx, receipt.ID)
		require.NoError(t, err)
		assert.True(t, found.AllocatedAmount.Equal(decimal.RequireFromString("200")))
		assert.Equal(t, receipt.Version, found.Version)
	})

	t.Run("rejects stale version", func(t *testing.T) {
		receipt := newTestReceipt(t, "ADV-2025-0011", uuid.New(), "500")
		require.NoError(t, repo.Save(ctx, receipt))

		stale := *receipt
		stale.Version = receipt.Version + 5

		err := repo.SaveWithLock(ctx, &stale)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
	})
}
