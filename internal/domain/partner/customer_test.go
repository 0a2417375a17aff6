package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCustomerKind_IsValid(t *testing.T) {
	assert.True(t, CustomerKindCompany.IsValid())
	assert.True(t, CustomerKindIndividual.IsValid())
	assert.False(t, CustomerKind("VENDOR").IsValid())
	assert.False(t, CustomerKind("").IsValid())
}

func TestCreditProfile_Validate(t *testing.T) {
	valid := CreditProfile{
		CustomerID:  uuid.New(),
		Kind:        CustomerKindCompany,
		Name:        "Al Noor Trading LLC",
		CreditLimit: decimal.NewFromInt(5000),
	}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.CustomerID = uuid.Nil
	assert.Error(t, noID.Validate())

	badKind := valid
	badKind.Kind = "OTHER"
	assert.Error(t, badKind.Validate())

	negative := valid
	negative.CreditLimit = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())
}

func TestCreditProfile_HasCreditLimit(t *testing.T) {
	p := CreditProfile{CreditLimit: decimal.Zero}
	assert.False(t, p.HasCreditLimit())

	p.CreditLimit = decimal.NewFromInt(1000)
	assert.True(t, p.HasCreditLimit())
}
