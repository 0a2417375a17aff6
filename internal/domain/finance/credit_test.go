package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditUsage_AvailableCredit(t *testing.T) {
	tests := []struct {
		name        string
		limit       string
		outstanding string
		want        string
	}{
		{"headroom left", "5000", "4800", "200"},
		{"nothing used", "5000", "0", "5000"},
		{"exactly at limit", "5000", "5000", "0"},
		{"over limit clamps to zero", "5000", "6000", "0"},
		{"no limit", "0", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := CreditUsage{
				CreditLimit:      dec(tt.limit),
				TotalOutstanding: dec(tt.outstanding),
			}
			assert.True(t, usage.AvailableCredit().Equal(dec(tt.want)),
				"got %s", usage.AvailableCredit())
		})
	}
}

func TestEvaluateCredit(t *testing.T) {
	t.Run("partial credit cover", func(t *testing.T) {
		// creditLimit=5000, totalOutstanding=4800, new billing total=500
		usage := CreditUsage{CreditLimit: dec("5000"), TotalOutstanding: dec("4800")}

		decision, err := EvaluateCredit(usage, dec("500"))
		require.NoError(t, err)

		assert.True(t, decision.PaidByCredit.Equal(dec("200")))
		assert.True(t, decision.DueAmount.Equal(dec("300")))
		assert.True(t, decision.RequiresDue())
	})

	t.Run("credit fully absorbs charge", func(t *testing.T) {
		usage := CreditUsage{CreditLimit: dec("5000"), TotalOutstanding: dec("1000")}

		decision, err := EvaluateCredit(usage, dec("500"))
		require.NoError(t, err)

		assert.True(t, decision.PaidByCredit.Equal(dec("500")))
		assert.True(t, decision.DueAmount.IsZero())
		assert.False(t, decision.RequiresDue())
	})

	t.Run("no credit at all", func(t *testing.T) {
		usage := CreditUsage{CreditLimit: dec("1000"), TotalOutstanding: dec("1500")}

		decision, err := EvaluateCredit(usage, dec("500"))
		require.NoError(t, err)

		assert.True(t, decision.PaidByCredit.IsZero())
		assert.True(t, decision.DueAmount.Equal(dec("500")))
	})

	t.Run("rejects negative charge", func(t *testing.T) {
		_, err := EvaluateCredit(CreditUsage{}, dec("-1"))
		assert.Error(t, err)
	})

	t.Run("split is exact for any usage", func(t *testing.T) {
		cases := []CreditUsage{
			{CreditLimit: dec("5000"), TotalOutstanding: dec("4999.99")},
			{CreditLimit: dec("100.5"), TotalOutstanding: dec("0.25")},
			{CreditLimit: decimal.Zero, TotalOutstanding: decimal.Zero},
		}
		total := dec("333.33")
		for _, usage := range cases {
			decision, err := EvaluateCredit(usage, total)
			require.NoError(t, err)
			assert.True(t, decision.PaidByCredit.Add(decision.DueAmount).Equal(total),
				"paidByCredit + dueAmount must equal the charge total exactly")
		}
	})
}
