package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tasheel/backend/internal/domain/shared"
)

// VATMode selects the base the VAT percentage is applied to.
type VATMode string

const (
	// VATModeServiceCharge applies VAT to the typing (service) charges only.
	VATModeServiceCharge VATMode = "SERVICE_CHARGE"
	// VATModeTotalAmount applies VAT to the full post-discount total.
	VATModeTotalAmount VATMode = "TOTAL_AMOUNT"
)

// IsValid checks if the VAT mode is valid
func (m VATMode) IsValid() bool {
	return m == VATModeServiceCharge || m == VATModeTotalAmount
}

// String returns the string representation of VATMode
func (m VATMode) String() string {
	return string(m)
}

// ChargeOverride replaces a service's default charges with negotiated one-off
// totals. A nil field keeps the default unit charge * quantity.
type ChargeOverride struct {
	TypingCharge     *decimal.Decimal `json:"typing_charge,omitempty"`
	GovernmentCharge *decimal.Decimal `json:"government_charge,omitempty"`
}

// ChargeInput describes one service line before pricing.
type ChargeInput struct {
	ServiceName          string
	UnitTypingCharge     decimal.Decimal
	UnitGovernmentCharge decimal.Decimal
	Quantity             int
	Override             *ChargeOverride
}

// ServiceCharge is the itemized charge breakdown for one service line.
// All derived amounts are non-negative.
type ServiceCharge struct {
	ServiceName      string          `json:"service_name"`
	Quantity         int             `json:"quantity"`
	TypingCharge     decimal.Decimal `json:"typing_charge"`     // total, after quantity/override
	GovernmentCharge decimal.Decimal `json:"government_charge"` // total, after quantity/override
	Discount         decimal.Decimal `json:"discount"`
	VATPercentage    decimal.Decimal `json:"vat_percentage"`
	VATMode          VATMode         `json:"vat_mode"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	TotalWithVAT     decimal.Decimal `json:"total_with_vat"`
	VendorCostShare  decimal.Decimal `json:"vendor_cost_share"`
}

// ComputeCharge prices a single service line. It is pure and deterministic:
// no clock, no storage, no side effects.
//
// The discount is absorbed against the subtotal, never below zero. In
// SERVICE_CHARGE mode the VAT base is the typing charge reduced by at most
// min(discount, typing); any discount beyond the typing charge does not
// reduce the VAT base further. In TOTAL_AMOUNT mode VAT applies to the full
// post-discount total.
func ComputeCharge(input ChargeInput, discount, vatPercentage decimal.Decimal, vatMode VATMode) (*ServiceCharge, error) {
	if input.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if vatPercentage.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VAT_PERCENTAGE", "VAT percentage cannot be negative")
	}
	if !vatMode.IsValid() {
		return nil, shared.NewDomainError("INVALID_VAT_MODE", "VAT mode is not valid")
	}
	if input.UnitTypingCharge.IsNegative() || input.UnitGovernmentCharge.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_CHARGE", "Unit charges cannot be negative")
	}

	qty := decimal.NewFromInt(int64(input.Quantity))

	typing := input.UnitTypingCharge.Mul(qty)
	government := input.UnitGovernmentCharge.Mul(qty)
	if input.Override != nil {
		if input.Override.TypingCharge != nil {
			if input.Override.TypingCharge.IsNegative() {
				return nil, shared.NewDomainError("INVALID_OVERRIDE", "Typing charge override cannot be negative")
			}
			typing = *input.Override.TypingCharge
		}
		if input.Override.GovernmentCharge != nil {
			if input.Override.GovernmentCharge.IsNegative() {
				return nil, shared.NewDomainError("INVALID_OVERRIDE", "Government charge override cannot be negative")
			}
			government = *input.Override.GovernmentCharge
		}
	}

	subtotal := typing.Add(government)

	totalAmount := subtotal.Sub(discount)
	if totalAmount.IsNegative() {
		totalAmount = decimal.Zero
	}

	var vatBase decimal.Decimal
	switch vatMode {
	case VATModeServiceCharge:
		vatBase = typing.Sub(decimal.Min(discount, typing))
	case VATModeTotalAmount:
		vatBase = totalAmount
	}

	vatAmount := vatBase.Mul(vatPercentage).Div(decimal.NewFromInt(100))

	return &ServiceCharge{
		ServiceName:      input.ServiceName,
		Quantity:         input.Quantity,
		TypingCharge:     typing,
		GovernmentCharge: government,
		Discount:         discount,
		VATPercentage:    vatPercentage,
		VATMode:          vatMode,
		Subtotal:         subtotal,
		TotalAmount:      totalAmount,
		VATAmount:        vatAmount,
		TotalWithVAT:     totalAmount.Add(vatAmount),
		VendorCostShare:  decimal.Zero,
	}, nil
}

// ComputeMultiCharge prices a multi-service billing. The per-billing discount
// and any assigned vendor cost are split evenly across line items; each item's
// VAT is recomputed from its own share.
func ComputeMultiCharge(inputs []ChargeInput, discount, vendorCost, vatPercentage decimal.Decimal, vatMode VATMode) ([]ServiceCharge, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "At least one service line is required")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if vendorCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VENDOR_COST", "Vendor cost cannot be negative")
	}

	count := decimal.NewFromInt(int64(len(inputs)))
	discountShare := discount.Div(count)
	vendorShare := vendorCost.Div(count)

	charges := make([]ServiceCharge, 0, len(inputs))
	for _, input := range inputs {
		charge, err := ComputeCharge(input, discountShare, vatPercentage, vatMode)
		if err != nil {
			return nil, err
		}
		charge.VendorCostShare = vendorShare
		charges = append(charges, *charge)
	}
	return charges, nil
}

// ServiceCharges implements GORM Scanner/Valuer for JSONB storage
type ServiceCharges []ServiceCharge

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c ServiceCharges) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *ServiceCharges) Scan(value interface{}) error {
	if value == nil {
		*c = ServiceCharges{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ServiceCharges: unsupported type")
	}

	if len(bytes) == 0 {
		*c = ServiceCharges{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// SumTotalWithVAT sums the VAT-inclusive totals of the given charges
func SumTotalWithVAT(charges []ServiceCharge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.TotalWithVAT)
	}
	return total
}
