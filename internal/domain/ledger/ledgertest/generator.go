// Package ledgertest generates consistent ledger fixtures for tests.
package ledgertest

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// Generator produces loans and services whose derived fields agree with each other.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a generator with a random seed.
func New() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewWithSeed creates a generator with a fixed seed for reproducibility.
func NewWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

var accounts = []string{"6039", "2477", "3879"}

// Amount returns a peso amount between min and max.
func (g *Generator) Amount(min, max float64) *money.Money {
	return money.NewFromFloat(g.faker.Float64Range(min, max), money.UYU)
}

// Day returns a date in [from, from+days).
func (g *Generator) Day(from time.Time, days int) time.Time {
	return ledger.DateOf(from).AddDate(0, 0, g.faker.IntRange(0, days-1))
}

// Loan returns an active loan with paid installments already recorded.
// The first installment falls due at start.
func (g *Generator) Loan(id int, start time.Time) ledger.Loan {
	installments := g.faker.IntRange(2, 24)
	paid := g.faker.IntRange(0, installments-1)
	amount := g.Amount(200, 5000)
	capital := amount.Multiply(int64(installments))
	account := accounts[g.faker.IntRange(0, len(accounts)-1)]
	moratory := g.faker.Float64Range(20, 60)

	history := make([]ledger.Payment, 0, paid)
	for i := 0; i < paid; i++ {
		history = append(history, ledger.Payment{
			Date:              ledger.AddMonths(start, i),
			Amount:            amount,
			Status:            ledger.PaymentPaid,
			Method:            ledger.PaymentMethod("debit_" + account),
			InstallmentNumber: i + 1,
		})
	}

	next := ledger.AddMonths(start, paid)
	return ledger.Loan{
		ID:                    id,
		Name:                  g.faker.Company() + " " + g.faker.Noun(),
		Owner:                 g.faker.FirstName(),
		Account:               account,
		Capital:               capital,
		Installments:          installments,
		Amount:                amount,
		PaidInstallments:      paid,
		InterestRate:          g.faker.Float64Range(0, 40),
		Moratory:              &moratory,
		Status:                ledger.LoanActive,
		PaymentHistory:        history,
		CurrentBalance:        capital.MustSubtract(amount.Multiply(int64(paid))),
		TotalAmountToPay:      capital,
		RemainingInstallments: installments - paid,
		NextPaymentDate:       &next,
	}
}

// Service returns a monthly peso-billed service charging on a random day.
func (g *Generator) Service(id string) ledger.Service {
	price := g.Amount(100, 2000)
	account := accounts[g.faker.IntRange(0, len(accounts)-1)]
	return ledger.Service{
		ID:             id,
		Name:           g.faker.AppName(),
		Category:       "Digitales",
		Account:        account,
		Method:         ledger.PaymentMethod("debit_" + account),
		Price:          ledger.Price{Amount: price, UYUEquivalent: price},
		BillingCycle:   ledger.BillingMonthly,
		BillingDay:     g.faker.IntRange(1, 28),
		PaymentHistory: []ledger.Payment{},
	}
}
