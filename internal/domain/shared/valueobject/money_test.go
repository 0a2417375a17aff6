package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), AED)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, AED, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(10), "")
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyAEDFromFloat(100)
	b := NewMoneyAEDFromFloat(30)

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(130)))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(70)))
	})

	t.Run("add rejects mixed currencies", func(t *testing.T) {
		usd, err := NewMoney(decimal.NewFromInt(5), USD)
		require.NoError(t, err)
		_, err = a.Add(usd)
		assert.Error(t, err)
	})

	t.Run("multiply by int", func(t *testing.T) {
		m := b.MultiplyByInt(3)
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(90)))
	})

	t.Run("divide by zero fails", func(t *testing.T) {
		_, err := a.Divide(decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoneyComparisons(t *testing.T) {
	a := NewMoneyAEDFromFloat(10)
	b := NewMoneyAEDFromFloat(20)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(NewMoneyAEDFromFloat(10)))
	assert.False(t, a.Equals(b))
}

func TestMoneySplit(t *testing.T) {
	t.Run("splits evenly with exact shares", func(t *testing.T) {
		m := NewMoneyAEDFromFloat(100)
		parts, err := m.Split(3)
		require.NoError(t, err)
		require.Len(t, parts, 3)

		total := decimal.Zero
		for _, p := range parts {
			total = total.Add(p.Amount())
		}
		assert.True(t, total.Equal(m.Amount()), "shares must sum back to the original amount")
	})

	t.Run("single part returns original", func(t *testing.T) {
		m := NewMoneyAEDFromFloat(42)
		parts, err := m.Split(1)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.True(t, parts[0].Equals(m))
	})

	t.Run("rejects non-positive parts", func(t *testing.T) {
		_, err := NewMoneyAEDFromFloat(10).Split(0)
		assert.Error(t, err)
	})
}

func TestMoneyPercentage(t *testing.T) {
	m := NewMoneyAEDFromFloat(270)
	vat := m.CalculatePercentage(decimal.NewFromInt(5))
	assert.True(t, vat.Amount().Equal(decimal.NewFromFloat(13.5)))
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneyAEDFromFloat(99.99)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var parsed Money
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, parsed.Equals(m))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("123.45"))
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())
}
