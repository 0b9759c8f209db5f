package domain

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestAmountPercentageChange(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		fraction string
		expected string
	}{
		{"one percent", "100", "0.01", "101"},
		{"zero fraction", "100", "0", "100"},
		{"fifty percent", "10", "0.5", "15"},
		{"zero amount", "0", "0.01", "0"},
		// 1e-18 * 1.5 = 1.5e-18, which rounds up to 2e-18 at the fixed scale.
		{"rounds up at scale", "0.000000000000000001", "0.5", "0.000000000000000002"},
		{"tiny fraction rounds up", "1", "0.0000000000000000001", "1.000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustAmount(tt.amount)
			got := a.PercentageChange(decimal.RequireFromString(tt.fraction))
			check.Equal(t, tt.expected, got.String())
		})
	}
}

func TestAmountMulRatioTruncates(t *testing.T) {
	// 1e-18 * 0.5 = 5e-19 truncates to zero at the fixed scale.
	a := MustAmount("0.000000000000000001")
	got := a.MulRatio(decimal.RequireFromString("0.5"))
	check.True(t, got.IsZero())

	// Plain scaling stays exact.
	check.Equal(t, "200", AmountFromInt(10).MulRatio(decimal.NewFromInt(20)).String())
}

func TestAmountDiv(t *testing.T) {
	ratio := AmountFromInt(150).Div(AmountFromInt(10))
	check.Equal(t, "15", ratio.String())

	// Non-terminating division truncates toward zero.
	third := AmountFromInt(1).Div(AmountFromInt(3))
	check.Equal(t, "0.333333333333333333", third.String())
}

func TestAmountDivRatioRoundTrip(t *testing.T) {
	// quantity = balance / rate, then quantity * rate must recover the
	// balance within one unit at the fixed scale.
	balance := AmountFromInt(50)
	rate := decimal.NewFromInt(15)

	quantity := balance.DivRatio(rate)
	recovered := quantity.MulRatio(rate)

	diff := balance.Sub(recovered)
	check.True(t, diff.GreaterThanOrEqual(Amount{}))
	check.True(t, diff.LessThan(MustAmount("0.000000000000001")))
}

func TestAmountMinMax(t *testing.T) {
	a := AmountFromInt(3)
	b := AmountFromInt(7)

	check.True(t, MinAmount(a, b).Equal(a))
	check.True(t, MinAmount(b, a).Equal(a))
	check.True(t, MaxAmount(a, b).Equal(b))
	check.True(t, MaxAmount(b, a).Equal(b))
	check.True(t, MaxAmount(a, a).Equal(a))
}

func TestAmountComparisons(t *testing.T) {
	a := MustAmount("1.5")
	b := MustAmount("2.5")

	check.True(t, a.LessThan(b))
	check.True(t, a.LessThanOrEqual(b))
	check.True(t, b.GreaterThan(a))
	check.True(t, b.GreaterThanOrEqual(b))
	check.True(t, a.Equal(MustAmount("1.50")))
	check.Equal(t, -1, a.Cmp(b))
	check.Equal(t, 1, b.Cmp(a))
}

func TestAmountParsing(t *testing.T) {
	a, err := AmountFromString("123.456")
	check.NoError(t, err)
	check.Equal(t, "123.456", a.String())

	_, err = AmountFromString("not a number")
	check.True(t, err != nil)

	// Digits beyond the fixed scale are dropped on construction.
	b, err := AmountFromString("0.0000000000000000019")
	check.NoError(t, err)
	check.Equal(t, "0.000000000000000001", b.String())
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := MustAmount("42.125")

	data, err := json.Marshal(a)
	check.NoError(t, err)
	check.Equal(t, `"42.125"`, string(data))

	var back Amount
	check.NoError(t, json.Unmarshal(data, &back))
	check.True(t, back.Equal(a))
}
