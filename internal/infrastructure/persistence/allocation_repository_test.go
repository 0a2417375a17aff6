package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/shared"
)

// newMockAllocationRepository creates a GormAllocationRepository with a mocked SQL connection
func newMockAllocationRepository(t *testing.T) (*GormAllocationRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAllocationRepository(gormDB), mock, mockDB
}

func TestGormAllocationRepository_Save(t *testing.T) {
	t.Run("inserts allocation row", func(t *testing.T) {
		repo, mock, mockDB := newMockAllocationRepository(t)
		defer mockDB.Close()

		allocation := &finance.BillingAllocation{
			BaseEntity: shared.NewBaseEntity(),
			ReceiptID:  uuid.New(),
			BillingID:  uuid.New(),
			Amount:     decimal.RequireFromString("150.50"),
			AppliedAt:  time.Now(),
			Remark:     "settled on submission",
		}

		mock.ExpectExec(`INSERT INTO "billing_allocations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), allocation)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_FindByBilling(t *testing.T) {
	t.Run("returns allocations in applied order", func(t *testing.T) {
		repo, mock, mockDB := newMockAllocationRepository(t)
		defer mockDB.Close()

		billingID := uuid.New()
		firstID := uuid.New()
		secondID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "receipt_id", "billing_id", "amount", "applied_at", "remark"}).
			AddRow(firstID, now, now, uuid.New(), billingID, decimal.RequireFromString("100"), now.Add(-time.Hour), "").
			AddRow(secondID, now, now, uuid.New(), billingID, decimal.RequireFromString("50"), now, "")

		mock.ExpectQuery(`SELECT \* FROM "billing_allocations" WHERE billing_id = \$1 ORDER BY applied_at ASC`).
			WithArgs(billingID).
			WillReturnRows(rows)

		allocations, err := repo.FindByBilling(context.Background(), billingID)

		assert.NoError(t, err)
		require.Len(t, allocations, 2)
		assert.Equal(t, firstID, allocations[0].ID)
		assert.Equal(t, secondID, allocations[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_SumByBilling(t *testing.T) {
	t.Run("sums applied amounts", func(t *testing.T) {
		repo, mock, mockDB := newMockAllocationRepository(t)
		defer mockDB.Close()

		billingID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow(decimal.RequireFromString("250.75"))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "billing_allocations" WHERE billing_id = \$1`).
			WithArgs(billingID).
			WillReturnRows(rows)

		total, err := repo.SumByBilling(context.Background(), billingID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("250.75")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty billing sums to zero", func(t *testing.T) {
		repo, mock, mockDB := newMockAllocationRepository(t)
		defer mockDB.Close()

		billingID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow(decimal.Zero)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "billing_allocations" WHERE billing_id = \$1`).
			WithArgs(billingID).
			WillReturnRows(rows)

		total, err := repo.SumByBilling(context.Background(), billingID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_SumByReceipt(t *testing.T) {
	t.Run("sums drawn amounts", func(t *testing.T) {
		repo, mock, mockDB := newMockAllocationRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow(decimal.RequireFromString("999.9999"))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "billing_allocations" WHERE receipt_id = \$1`).
			WithArgs(receiptID).
			WillReturnRows(rows)

		total, err := repo.SumByReceipt(context.Background(), receiptID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("999.9999")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
