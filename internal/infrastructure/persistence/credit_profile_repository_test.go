package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/domain/shared"
)

// newMockCreditProfileRepository creates a GormCreditProfileRepository with a mocked SQL connection
func newMockCreditProfileRepository(t *testing.T) (*GormCreditProfileRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormCreditProfileRepository(gormDB), mock, mockDB
}

func TestGormCreditProfileRepository_FindByCustomer(t *testing.T) {
	t.Run("finds existing profile", func(t *testing.T) {
		repo, mock, mockDB := newMockCreditProfileRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		rows := sqlmock.NewRows([]string{"customer_id", "kind", "name", "credit_limit"}).
			AddRow(customerID, "COMPANY", "Al Noor Trading LLC", decimal.RequireFromString("50000"))

		mock.ExpectQuery(`SELECT \* FROM "credit_profiles" WHERE customer_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnRows(rows)

		profile, err := repo.FindByCustomer(context.Background(), customerID)

		assert.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, customerID, profile.CustomerID)
		assert.Equal(t, partner.CustomerKindCompany, profile.Kind)
		assert.True(t, profile.CreditLimit.Equal(decimal.RequireFromString("50000")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown customer", func(t *testing.T) {
		repo, mock, mockDB := newMockCreditProfileRepository(t)
		defer mockDB.Close()

		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "credit_profiles" WHERE customer_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		profile, err := repo.FindByCustomer(context.Background(), customerID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCreditProfileRepository_Save(t *testing.T) {
	t.Run("upserts profile", func(t *testing.T) {
		repo, mock, mockDB := newMockCreditProfileRepository(t)
		defer mockDB.Close()

		profile := &partner.CreditProfile{
			CustomerID:  uuid.New(),
			Kind:        partner.CustomerKindCompany,
			Name:        "Al Noor Trading LLC",
			CreditLimit: decimal.RequireFromString("75000"),
		}

		mock.ExpectExec(`INSERT INTO "credit_profiles" .*ON CONFLICT`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), profile)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid profile before touching the database", func(t *testing.T) {
		repo, mock, mockDB := newMockCreditProfileRepository(t)
		defer mockDB.Close()

		profile := &partner.CreditProfile{
			CustomerID:  uuid.New(),
			Kind:        partner.CustomerKindCompany,
			Name:        "Al Noor Trading LLC",
			CreditLimit: decimal.RequireFromString("-1"),
		}

		err := repo.Save(context.Background(), profile)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
