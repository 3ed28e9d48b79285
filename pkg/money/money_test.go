package money

import (
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFloat(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{"installment", 549.02, 54902},
		{"whole number", 12000, 1200000},
		{"zero", 0.0, 0},
		{"negative", -50.99, -5099},
		{"rounding", 12.345, 1235},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromFloat(tt.amount, UYU)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, UYU, m.Currency())
		})
	}
}

func TestNewFromDecimal_UnknownCurrencyFallsBackToUYU(t *testing.T) {
	m := NewFromDecimal(decimal.RequireFromString("10.5"), "XXX-NOT-REAL")
	assert.Equal(t, UYU, m.Currency())
	assert.Equal(t, int64(1050), m.Amount())
}

func TestNewFromString(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{"plain", "541.72", UYU, 54172, false},
		{"es-UY grouped with symbol", "$ 1.916,39", UYU, 191639, false},
		{"us grouped", "1,916.39", UYU, 191639, false},
		{"usd prefix", "USD 20.00", USD, 2000, false},
		{"pesos suffix thousands only", "12.000 PESOS", UYU, 1200000, false},
		{"dolares suffix", "20,00 dólares", USD, 2000, false},
		{"comma decimal", "4.831,05", UYU, 483105, false},
		{"negative", "-25,50", UYU, -2550, false},
		{"symbol only", "$", UYU, 0, true},
		{"letters", "abc", UYU, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFromString(tt.amount, tt.currency)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestArithmetic(t *testing.T) {
	capital := NewFromFloat(20000, UYU)
	installment := NewFromFloat(1916.39, UYU)

	balance, err := capital.Subtract(installment.Multiply(3))
	require.NoError(t, err)
	assert.Equal(t, "14250.83", balance.String())

	total, err := Sum(UYU, installment, nil, installment)
	require.NoError(t, err)
	assert.Equal(t, int64(383278), total.Amount())

	_, err = capital.Add(NewFromFloat(20, USD))
	assert.Error(t, err, "mixed currencies must not add")
}

func TestSubtract_NilOperands(t *testing.T) {
	var missing *Money
	fee := NewFromFloat(19.16, USD)

	tests := []struct {
		name     string
		m, other *Money
		want     string
		currency string
	}{
		{"nil minus value negates", missing, fee, "-19.16", USD},
		{"nil minus nil is zero", missing, nil, "0.00", UYU},
		{"value minus nil is unchanged", fee, nil, "19.16", USD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.m.Subtract(tt.other)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.currency, got.Currency())
		})
	}
	assert.Equal(t, "19.16", fee.String(), "operands are not modified")
}

func TestPercentageAndPenalty(t *testing.T) {
	installment := NewFromFloat(1916.39, UYU)
	assert.Equal(t, int64(98407), installment.Percentage(51.35).Amount())

	fee := NewFromFloat(549.02, UYU).ProratedPenalty(43.74, 19, 30)
	assert.Equal(t, "152.09", fee.String())

	assert.True(t, installment.ProratedPenalty(0, 10, 30).IsZero())
	assert.True(t, installment.ProratedPenalty(43.74, 0, 30).IsZero())
	assert.True(t, installment.ProratedPenalty(43.74, -5, 30).IsZero())
}

func TestProratedPenalty_Monotonic(t *testing.T) {
	faker := gofakeit.New(7)
	for i := 0; i < 50; i++ {
		amount := NewFromFloat(faker.Float64Range(1, 50000), UYU)
		rate := faker.Float64Range(0, 80)

		prev := Zero(UYU)
		for days := 0; days <= 120; days++ {
			fee := amount.ProratedPenalty(rate, days, 30)
			assert.False(t, fee.LessThan(prev), "fee decreased at day %d", days)
			prev = fee
		}
	}
}

func TestDivideAndConvert(t *testing.T) {
	annual := NewFromFloat(887.56, UYU)
	assert.Equal(t, "73.96", annual.DivideDecimal(decimal.NewFromInt(12)).String())

	usd := NewFromFloat(20, USD)
	assert.Equal(t, "933.00", usd.Convert(UYU, decimal.NewFromFloat(46.65)).String())
}

func TestApproxEqual(t *testing.T) {
	a := NewFromFloat(541.72, UYU)
	assert.True(t, a.ApproxEqual(NewFromFloat(541.71, UYU), DefaultEpsilon))
	assert.True(t, a.ApproxEqual(NewFromFloat(541.62, UYU), DefaultEpsilon))
	assert.False(t, a.ApproxEqual(NewFromFloat(541.50, UYU), DefaultEpsilon))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$ 1.916,39", NewFromFloat(1916.39, UYU).Display())
	assert.Equal(t, "$ 541,72", NewFromFloat(541.72, UYU).Display())
	assert.Equal(t, "US$ 20,00", NewFromFloat(20, USD).Display())
	assert.Equal(t, "$ 1.200.000,00", NewFromFloat(1200000, UYU).Display())
}

func TestRenderings(t *testing.T) {
	assert.Equal(t,
		[]string{"1916.39", "1916,39", "1,916.39", "1.916,39"},
		NewFromFloat(1916.39, UYU).Renderings(),
	)
	assert.Equal(t, []string{"541.72", "541,72"}, NewFromFloat(541.72, UYU).Renderings())
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(NewFromFloat(549.02, UYU))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":54902,"currency":"UYU","display":"$ 549,02"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":2000}`), &m))
	assert.Equal(t, UYU, m.Currency())
	assert.Equal(t, int64(2000), m.Amount())
}

func TestNilSafety(t *testing.T) {
	var m *Money

	assert.Equal(t, int64(0), m.Amount())
	assert.Equal(t, "", m.Currency())
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.ToDecimal().IsZero())
	assert.Equal(t, int64(0), m.Percentage(10).Amount())
	assert.Equal(t, int64(0), m.ProratedPenalty(10, 3, 30).Amount())
	assert.Equal(t, 0, m.Compare(Zero(UYU)))
}
