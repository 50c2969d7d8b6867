package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{"canonical code", "TRY", TRY, false},
		{"lowercase is normalized", "eur", EUR, false},
		{"surrounding space trimmed", " usd ", USD, false},
		{"empty rejected", "", "", true},
		{"unknown code rejected", "XYZQ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrency_MinorUnitScale(t *testing.T) {
	assert.Equal(t, int32(2), TRY.MinorUnitScale())
	assert.Equal(t, int32(0), Currency("JPY").MinorUnitScale())
	assert.Equal(t, int32(2), Currency("???").MinorUnitScale())
}

func TestNewMoney(t *testing.T) {
	t.Run("valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), TRY)
		require.NoError(t, err)
		assert.Equal(t, TRY, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.50")))
	})

	t.Run("empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustNewMoney(decimal.RequireFromString("10.25"), TRY)
	b := MustNewMoney(decimal.RequireFromString("0.75"), TRY)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "11.00 TRY", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "9.50 TRY", diff.String())

	_, err = a.Add(MustNewMoney(decimal.NewFromInt(1), EUR))
	assert.Error(t, err)
}

func TestMoney_Rounding(t *testing.T) {
	one := MustNewMoney(decimal.RequireFromString("1.00"), TRY)

	// half-even: ties go to the even neighbour
	assert.Equal(t, "0.12", one.MulRoundBank(decimal.RequireFromString("0.125")).Amount().StringFixed(2))
	assert.Equal(t, "0.14", one.MulRoundBank(decimal.RequireFromString("0.135")).Amount().StringFixed(2))

	ten := MustNewMoney(decimal.RequireFromString("10.00"), TRY)
	assert.Equal(t, "0.01", ten.MulFloor(decimal.RequireFromString("0.00199")).Amount().StringFixed(2))
	assert.Equal(t, "0.02", ten.MulRoundBank(decimal.RequireFromString("0.00199")).Amount().StringFixed(2))
}

func TestMoney_JSON(t *testing.T) {
	m := MustNewMoney(decimal.RequireFromString("76.32"), TRY)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"76.32","currency":"TRY"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(m))
}
