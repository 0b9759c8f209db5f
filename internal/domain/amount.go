package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the fixed number of fractional digits carried by every
// Amount. 18 matches the convention of the ledgers the keeper bids against.
const AmountScale int32 = 18

// Amount is a non-negative monetary quantity with fixed decimal precision.
// It is an immutable value type; every operation returns a new Amount.
//
// Rounding policy: results of scaling operations (MulRatio, DivRatio, Div)
// are truncated toward zero at AmountScale, so the keeper never overstates
// what it pays or owns. PercentageChange is the one exception and rounds up,
// so a computed minimum next bid is never fractionally below the increase the
// auction manager actually enforces.
type Amount struct {
	value decimal.Decimal
}

func NewAmount(value decimal.Decimal) Amount {
	return Amount{value: value.RoundDown(AmountScale)}
}

func AmountFromInt(value int64) Amount {
	return Amount{value: decimal.NewFromInt(value)}
}

func AmountFromString(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return NewAmount(d), nil
}

// MustAmount parses a literal amount and panics on malformed input.
// For constants and tests only.
func MustAmount(value string) Amount {
	a, err := AmountFromString(value)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

func (a Amount) Sub(other Amount) Amount {
	return Amount{value: a.value.Sub(other.value)}
}

// MulRatio scales the amount by a scalar ratio, truncating at AmountScale.
func (a Amount) MulRatio(ratio decimal.Decimal) Amount {
	return Amount{value: a.value.Mul(ratio).RoundDown(AmountScale)}
}

// DivRatio divides the amount by a scalar ratio, truncating at AmountScale.
func (a Amount) DivRatio(ratio decimal.Decimal) Amount {
	return Amount{value: a.value.DivRound(ratio, AmountScale+4).RoundDown(AmountScale)}
}

// Div returns the ratio between two amounts, truncated at AmountScale.
func (a Amount) Div(other Amount) decimal.Decimal {
	return a.value.DivRound(other.value, AmountScale+4).RoundDown(AmountScale)
}

// PercentageChange returns a * (1 + fraction), rounded up at AmountScale.
func (a Amount) PercentageChange(fraction decimal.Decimal) Amount {
	factor := decimal.New(1, 0).Add(fraction)
	return Amount{value: a.value.Mul(factor).RoundUp(AmountScale)}
}

func (a Amount) Cmp(other Amount) int {
	return a.value.Cmp(other.value)
}

func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) LessThan(other Amount) bool {
	return a.value.LessThan(other.value)
}

func (a Amount) LessThanOrEqual(other Amount) bool {
	return a.value.LessThanOrEqual(other.value)
}

func (a Amount) GreaterThan(other Amount) bool {
	return a.value.GreaterThan(other.value)
}

func (a Amount) GreaterThanOrEqual(other Amount) bool {
	return a.value.GreaterThanOrEqual(other.value)
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) String() string {
	return a.value.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.value.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func MinAmount(a, b Amount) Amount {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

func MaxAmount(a, b Amount) Amount {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}
