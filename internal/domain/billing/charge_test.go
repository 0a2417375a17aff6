package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeCharge_ServiceChargeVATMode(t *testing.T) {
	// AED 100 typing + AED 50 government, quantity 2, discount 30, VAT 5%
	input := ChargeInput{
		ServiceName:          "Visa Renewal",
		UnitTypingCharge:     dec("100"),
		UnitGovernmentCharge: dec("50"),
		Quantity:             2,
	}

	charge, err := ComputeCharge(input, dec("30"), dec("5"), VATModeServiceCharge)
	require.NoError(t, err)

	assert.True(t, charge.TypingCharge.Equal(dec("200")))
	assert.True(t, charge.GovernmentCharge.Equal(dec("100")))
	assert.True(t, charge.Subtotal.Equal(dec("300")))
	assert.True(t, charge.TotalAmount.Equal(dec("270")))
	// VAT base = 200 - min(30, 200) = 170
	assert.True(t, charge.VATAmount.Equal(dec("8.5")), "got %s", charge.VATAmount)
	assert.True(t, charge.TotalWithVAT.Equal(dec("278.5")), "got %s", charge.TotalWithVAT)
}

func TestComputeCharge_TotalAmountVATMode(t *testing.T) {
	input := ChargeInput{
		ServiceName:          "Visa Renewal",
		UnitTypingCharge:     dec("100"),
		UnitGovernmentCharge: dec("50"),
		Quantity:             2,
	}

	charge, err := ComputeCharge(input, dec("30"), dec("5"), VATModeTotalAmount)
	require.NoError(t, err)

	assert.True(t, charge.TotalAmount.Equal(dec("270")))
	assert.True(t, charge.VATAmount.Equal(dec("13.5")), "got %s", charge.VATAmount)
	assert.True(t, charge.TotalWithVAT.Equal(dec("283.5")), "got %s", charge.TotalWithVAT)
}

func TestComputeCharge_DiscountClampsAtZero(t *testing.T) {
	input := ChargeInput{
		ServiceName:          "Attestation",
		UnitTypingCharge:     dec("20"),
		UnitGovernmentCharge: dec("10"),
		Quantity:             1,
	}

	charge, err := ComputeCharge(input, dec("100"), dec("5"), VATModeTotalAmount)
	require.NoError(t, err)

	assert.True(t, charge.TotalAmount.IsZero())
	assert.True(t, charge.VATAmount.IsZero())
	assert.True(t, charge.TotalWithVAT.IsZero())
}

func TestComputeCharge_DiscountExceedsTypingInServiceChargeMode(t *testing.T) {
	// Discount larger than typing: the VAT base bottoms out at zero, the
	// remainder of the discount reduces only the total.
	input := ChargeInput{
		ServiceName:          "Translation",
		UnitTypingCharge:     dec("50"),
		UnitGovernmentCharge: dec("200"),
		Quantity:             1,
	}

	charge, err := ComputeCharge(input, dec("80"), dec("5"), VATModeServiceCharge)
	require.NoError(t, err)

	assert.True(t, charge.TotalAmount.Equal(dec("170")))
	assert.True(t, charge.VATAmount.IsZero())
	assert.True(t, charge.TotalWithVAT.Equal(dec("170")))
}

func TestComputeCharge_Override(t *testing.T) {
	negotiatedTyping := dec("150")
	input := ChargeInput{
		ServiceName:          "Trade License",
		UnitTypingCharge:     dec("100"),
		UnitGovernmentCharge: dec("50"),
		Quantity:             2,
		Override:             &ChargeOverride{TypingCharge: &negotiatedTyping},
	}

	charge, err := ComputeCharge(input, decimal.Zero, dec("5"), VATModeServiceCharge)
	require.NoError(t, err)

	// Override replaces the full typing total, government stays unit*qty.
	assert.True(t, charge.TypingCharge.Equal(dec("150")))
	assert.True(t, charge.GovernmentCharge.Equal(dec("100")))
	assert.True(t, charge.Subtotal.Equal(dec("250")))
	assert.True(t, charge.VATAmount.Equal(dec("7.5")))
}

func TestComputeCharge_Validation(t *testing.T) {
	valid := ChargeInput{
		ServiceName:          "Visa Renewal",
		UnitTypingCharge:     dec("100"),
		UnitGovernmentCharge: dec("50"),
		Quantity:             1,
	}

	tests := []struct {
		name     string
		mutate   func(*ChargeInput)
		discount decimal.Decimal
		vat      decimal.Decimal
		mode     VATMode
	}{
		{
			name:     "zero quantity",
			mutate:   func(i *ChargeInput) { i.Quantity = 0 },
			discount: decimal.Zero,
			vat:      dec("5"),
			mode:     VATModeTotalAmount,
		},
		{
			name:     "negative quantity",
			mutate:   func(i *ChargeInput) { i.Quantity = -2 },
			discount: decimal.Zero,
			vat:      dec("5"),
			mode:     VATModeTotalAmount,
		},
		{
			name:     "negative discount",
			mutate:   func(i *ChargeInput) {},
			discount: dec("-1"),
			vat:      dec("5"),
			mode:     VATModeTotalAmount,
		},
		{
			name:     "negative VAT percentage",
			mutate:   func(i *ChargeInput) {},
			discount: decimal.Zero,
			vat:      dec("-5"),
			mode:     VATModeTotalAmount,
		},
		{
			name:     "invalid VAT mode",
			mutate:   func(i *ChargeInput) {},
			discount: decimal.Zero,
			vat:      dec("5"),
			mode:     VATMode("BOTH"),
		},
		{
			name:     "negative unit charge",
			mutate:   func(i *ChargeInput) { i.UnitTypingCharge = dec("-10") },
			discount: decimal.Zero,
			vat:      dec("5"),
			mode:     VATModeTotalAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			_, err := ComputeCharge(input, tt.discount, tt.vat, tt.mode)
			assert.Error(t, err)
		})
	}
}

func TestComputeMultiCharge(t *testing.T) {
	inputs := []ChargeInput{
		{ServiceName: "Visa Renewal", UnitTypingCharge: dec("100"), UnitGovernmentCharge: dec("50"), Quantity: 1},
		{ServiceName: "Emirates ID", UnitTypingCharge: dec("40"), UnitGovernmentCharge: dec("100"), Quantity: 1},
		{ServiceName: "Medical Test", UnitTypingCharge: dec("30"), UnitGovernmentCharge: dec("280"), Quantity: 1},
	}

	charges, err := ComputeMultiCharge(inputs, dec("30"), dec("90"), dec("5"), VATModeTotalAmount)
	require.NoError(t, err)
	require.Len(t, charges, 3)

	// Discount and vendor cost split evenly.
	for _, c := range charges {
		assert.True(t, c.Discount.Equal(dec("10")))
		assert.True(t, c.VendorCostShare.Equal(dec("30")))
	}

	// Sum of item totals equals the whole-billing computation.
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.TotalAmount)
	}
	assert.True(t, total.Equal(dec("570")), "got %s", total) // 600 subtotal - 30 discount
}

func TestComputeMultiCharge_Validation(t *testing.T) {
	_, err := ComputeMultiCharge(nil, decimal.Zero, decimal.Zero, dec("5"), VATModeTotalAmount)
	assert.Error(t, err)

	inputs := []ChargeInput{{ServiceName: "X", UnitTypingCharge: dec("10"), Quantity: 1}}
	_, err = ComputeMultiCharge(inputs, dec("-5"), decimal.Zero, dec("5"), VATModeTotalAmount)
	assert.Error(t, err)

	_, err = ComputeMultiCharge(inputs, decimal.Zero, dec("-5"), dec("5"), VATModeTotalAmount)
	assert.Error(t, err)
}

func TestSumTotalWithVAT(t *testing.T) {
	charges := []ServiceCharge{
		{TotalWithVAT: dec("100.5")},
		{TotalWithVAT: dec("49.5")},
	}
	assert.True(t, SumTotalWithVAT(charges).Equal(dec("150")))
}
