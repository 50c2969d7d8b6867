package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	TRY Currency = "TRY" // Turkish Lira (default)
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is the invoicing currency when none is configured
const DefaultCurrency = TRY

// ParseCurrency validates an ISO 4217 code and returns its canonical form.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", errors.New("currency cannot be empty")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// MinorUnitScale returns the number of decimal places of the currency's minor unit.
// Unknown codes fall back to 2.
func (c Currency) MinorUnitScale() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// Money is an immutable monetary amount in a single currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, c Currency) (Money, error) {
	parsed, err := ParseCurrency(string(c))
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: parsed}, nil
}

// MustNewMoney is NewMoney for trusted constants; it panics on an invalid currency.
func MustNewMoney(amount decimal.Decimal, c Currency) Money {
	m, err := NewMoney(amount, c)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, c Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, c)
}

// Zero returns a zero-value Money in the specified currency
func Zero(c Currency) Money {
	return Money{amount: decimal.Zero, currency: c}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum; currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference; currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// MulRoundBank multiplies by rate and rounds half-even to the minor unit.
func (m Money) MulRoundBank(rate decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(rate).RoundBank(m.currency.MinorUnitScale()),
		currency: m.currency,
	}
}

// MulFloor multiplies by rate and rounds toward negative infinity at the minor unit.
func (m Money) MulFloor(rate decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(rate).RoundFloor(m.currency.MinorUnitScale()),
		currency: m.currency,
	}
}

// Equals returns true if both amount and currency match
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats the amount at the currency's minor-unit scale, e.g. "76.32 TRY".
func (m Money) String() string {
	return m.amount.StringFixed(m.currency.MinorUnitScale()) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON encodes the amount as a fixed-scale string to avoid float drift.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.StringFixed(m.currency.MinorUnitScale()),
		Currency: m.currency,
	})
}

// UnmarshalJSON decodes {"amount": "...", "currency": "..."}.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
