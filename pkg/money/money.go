// Package money provides currency-safe financial arithmetic using integer cents.
// Ledger amounts are stored in minor units and every derived value (late fees,
// prorated monthly costs, exchange conversions) goes through decimal math.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes used by the ledger (ISO-4217)
const (
	UYU = "UYU" // Uruguayan Peso, the ledger's reporting currency
	USD = "USD" // US Dollar
)

// DefaultEpsilon is the tolerance used when comparing stored totals against recomputed ones.
var DefaultEpsilon = decimal.NewFromFloat(0.1)

// ErrInvalidAmount is returned when a textual amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a new Money value from cents (minor units) and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

// NewFromFloat creates Money from a floating-point value, rounding half away from zero to cents.
func NewFromFloat(amount float64, currencyCode string) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// NewFromDecimal creates Money from a decimal.Decimal value.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(UYU)
		currencyCode = UYU
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := amount.Mul(multiplier).Round(0).IntPart()

	return New(cents, currencyCode)
}

// NewFromString parses an amount as it appears on a document.
// Currency markers ("$", "USD", "PESOS") are stripped and the decimal separator is
// inferred: the last '.' or ',' followed by exactly two digits is the fraction,
// every other separator is treated as thousands grouping.
func NewFromString(amount string, currencyCode string) (*Money, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(amount))
	for _, marker := range []string{"US$", "U$S", "$U", "USD", "UYU", "PESOS", "DÓLARES", "DOLARES", "$"} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if cleaned == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")

	intPart, fracPart := cleaned, ""
	if idx := strings.LastIndexAny(cleaned, ".,"); idx >= 0 && len(cleaned)-idx-1 == 2 {
		intPart, fracPart = cleaned[:idx], cleaned[idx+1:]
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}

	normalized := intPart
	if fracPart != "" {
		normalized += "." + fracPart
	}
	if negative {
		normalized = "-" + normalized
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	return NewFromDecimal(d, currencyCode), nil
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsPositive returns true if the amount is greater than zero
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}

	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: result}, nil
}

// MustAdd adds two Money values, panics if currencies don't match.
func (m *Money) MustAdd(other *Money) *Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract subtracts other from m. Returns error if currencies don't match.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		if other == nil {
			return Zero(UYU), nil
		}
		if other.m == nil {
			return Zero(UYU), nil
		}
		return &Money{m: other.m.Multiply(-1)}, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}

	result, err := m.m.Subtract(other.m)
	if err != nil {
		return nil, err
	}
	return &Money{m: result}, nil
}

// MustSubtract subtracts other from m, panics if currencies don't match.
func (m *Money) MustSubtract(other *Money) *Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply multiplies by an integer factor
func (m *Money) Multiply(factor int64) *Money {
	if m == nil || m.m == nil {
		return Zero(UYU)
	}
	return &Money{m: m.m.Multiply(factor)}
}

// DivideDecimal divides by a decimal divisor for precise calculations.
func (m *Money) DivideDecimal(divisor decimal.Decimal) *Money {
	if m == nil || m.m == nil {
		return Zero(UYU)
	}
	if divisor.IsZero() {
		return Zero(m.Currency())
	}
	return NewFromDecimal(m.ToDecimal().Div(divisor), m.Currency())
}

// Percentage calculates a percentage of the amount (15.5 means 15.5%).
func (m *Money) Percentage(percent float64) *Money {
	if m == nil || m.m == nil {
		return Zero(UYU)
	}
	pct := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
	return NewFromDecimal(m.ToDecimal().Mul(pct), m.Currency())
}

// ProratedPenalty applies a per-period penalty rate for a number of days:
// amount * (percent/100) * days / periodDays. Non-positive days yield zero.
func (m *Money) ProratedPenalty(percent float64, days, periodDays int) *Money {
	if m == nil || m.m == nil {
		return Zero(UYU)
	}
	if days <= 0 || percent <= 0 || periodDays <= 0 {
		return Zero(m.Currency())
	}

	rate := decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
	fraction := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(periodDays)))
	return NewFromDecimal(m.ToDecimal().Mul(rate).Mul(fraction), m.Currency())
}

// Convert converts to a different currency using the given exchange rate.
// Rate is how many units of target currency per unit of source currency.
func (m *Money) Convert(targetCurrency string, rate decimal.Decimal) *Money {
	if m == nil || m.m == nil {
		return Zero(targetCurrency)
	}
	return NewFromDecimal(m.ToDecimal().Mul(rate), targetCurrency)
}

// ApproxEqual reports whether |m - other| <= epsilon, comparing decimal values
// regardless of currency. Ledger validation uses DefaultEpsilon.
func (m *Money) ApproxEqual(other *Money, epsilon decimal.Decimal) bool {
	return m.ToDecimal().Sub(other.ToDecimal()).Abs().LessThanOrEqual(epsilon)
}

// LessThan returns true if m < other
func (m *Money) LessThan(other *Money) bool {
	if m == nil || m.m == nil || other == nil || other.m == nil {
		return false
	}
	lt, _ := m.m.LessThan(other.m)
	return lt
}

// GreaterThan returns true if m > other
func (m *Money) GreaterThan(other *Money) bool {
	if m == nil || m.m == nil || other == nil || other.m == nil {
		return false
	}
	gt, _ := m.m.GreaterThan(other.m)
	return gt
}

// Compare returns -1 if m < other, 0 if equal, 1 if m > other
func (m *Money) Compare(other *Money) int {
	return m.ToDecimal().Cmp(other.ToDecimal())
}

// String returns the amount with two fixed decimals (e.g., "1916.39")
func (m *Money) String() string {
	return m.ToDecimal().StringFixed(2)
}

// Display formats the amount the way es-UY receipts print it: "$ 1.916,39" or "US$ 20,00".
func (m *Money) Display() string {
	symbol := "$"
	if m.Currency() == USD {
		symbol = "US$"
	}
	return symbol + " " + group(m.ToDecimal(), ".", ",")
}

// Renderings lists the textual forms an amount commonly takes on a document:
// plain ("1916.39"), comma decimal ("1916,39"), and both grouped styles
// ("1,916.39", "1.916,39"). Duplicates are removed.
func (m *Money) Renderings() []string {
	d := m.ToDecimal()
	candidates := []string{
		d.StringFixed(2),
		strings.Replace(d.StringFixed(2), ".", ",", 1),
		group(d, ",", "."),
		group(d, ".", ","),
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// group renders d with two decimals using the given thousands and decimal separators.
func group(d decimal.Decimal, thousands, decimalSep string) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(r)
	}
	b.WriteString(decimalSep)
	b.WriteString(frac)
	return b.String()
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	currency := m.m.Currency()
	d := decimal.NewFromInt(m.m.Amount())
	divisor := decimal.New(1, int32(currency.Fraction))
	return d.Div(divisor)
}

// ToFloat64 converts to float64 (use with caution for display only)
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// Sum adds values of the same currency, skipping nils.
func Sum(currencyCode string, values ...*Money) (*Money, error) {
	total := Zero(currencyCode)
	for _, v := range values {
		if v == nil {
			continue
		}
		var err error
		if total, err = total.Add(v); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// MarshalJSON emits {"amount": <cents>, "currency": "UYU", "display": "$ 1.916,39"}.
func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(map[string]interface{}{
		"amount":   m.Amount(),
		"currency": m.Currency(),
		"display":  m.Display(),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency == "" {
		v.Currency = UYU
	}
	m.m = money.New(v.Amount, v.Currency)
	return nil
}

// Scan reads minor units from the database. The currency column is scanned separately;
// callers rebuild with New when it is not UYU.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.m = nil
		return nil
	}

	switch v := value.(type) {
	case int64:
		m.m = money.New(v, UYU)
		return nil
	case int32:
		m.m = money.New(int64(v), UYU)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}

func (m *Money) Value() (driver.Value, error) {
	if m == nil || m.m == nil {
		return nil, nil
	}
	return m.Amount(), nil
}
