package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

func TestEntries_NewestFirst(t *testing.T) {
	seed := ledger.Seed()
	entries := Entries(seed.Loans, seed.Services)

	require.Len(t, entries, 10)
	assert.Equal(t, "chatgpt", entries[0].Source.ID)
	assert.Equal(t, ledger.Date(2024, time.December, 10), entries[0].Payment.Date)
	assert.Equal(t, ledger.ObligationLoan, entries[len(entries)-1].Source.Kind)
	assert.Equal(t, ledger.Date(2024, time.October, 3), entries[len(entries)-1].Payment.Date)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Payment.Date.After(entries[i-1].Payment.Date))
	}
}

func TestGroupByMonth(t *testing.T) {
	seed := ledger.Seed()
	groups := GroupByMonth(seed.Loans, seed.Services)

	require.Len(t, groups, 3)

	tests := []struct {
		month string
		count int
		total string
	}{
		{"2024-12", 5, "9109.72"},
		{"2024-11", 4, "3907.13"},
		{"2024-10", 1, "1916.39"},
	}
	for i, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			g := groups[i]
			assert.Equal(t, tt.month, g.Month)
			assert.Len(t, g.Payments, tt.count)
			assert.Equal(t, money.UYU, g.Total.Currency())
			assert.Equal(t, tt.total, g.Total.String())
		})
	}
}

func TestGroupByMonth_ForeignWithoutPesos(t *testing.T) {
	services := []ledger.Service{{
		ID:      "netflix",
		Name:    "Netflix",
		Account: "6039",
		PaymentHistory: []ledger.Payment{
			{Date: ledger.Date(2025, time.March, 5), Amount: money.NewFromFloat(9.99, money.USD), Status: ledger.PaymentPaid},
			{Date: ledger.Date(2025, time.March, 6), Amount: money.NewFromFloat(100, money.UYU), Status: ledger.PaymentPaid},
		},
	}}

	groups := GroupByMonth(nil, services)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Payments, 2)
	assert.Equal(t, "100.00", groups[0].Total.String())
}

func pending(kind ledger.ObligationKind, id, account string, amount, fee float64) ledger.PendingObligation {
	return ledger.PendingObligation{
		Source:  ledger.ObligationSource{Kind: kind, ID: id, Name: id, Account: account},
		DueDate: ledger.Date(2025, time.January, 3),
		Amount:  money.NewFromFloat(amount, money.UYU),
		LateFee: money.NewFromFloat(fee, money.UYU),
	}
}

func TestGroupPendingByAccount(t *testing.T) {
	accounts := ledger.Seed().Accounts
	obligations := []ledger.PendingObligation{
		pending(ledger.ObligationLoan, "3", "2477", 1916.39, 19.67),
		pending(ledger.ObligationService, "spotify", "6039", 541.72, 0),
		pending(ledger.ObligationLoan, "1", "6039", 549.02, 0),
		pending(ledger.ObligationService, "gym", "9999", 1200, 0),
		pending(ledger.ObligationService, "chatgpt", "2477", 933, 0),
	}

	summary := GroupPendingByAccount(obligations, accounts)

	require.Len(t, summary.Accounts, 3)

	brou := summary.Accounts[0]
	assert.Equal(t, "6039", brou.Account.ID)
	assert.Equal(t, "Brou Débito", brou.Account.Name)
	require.Len(t, brou.Obligations, 2)
	assert.Equal(t, "spotify", brou.Obligations[0].Source.ID)
	assert.Equal(t, "549.02", brou.LoanTotal.String())
	assert.Equal(t, "541.72", brou.ServiceTotal.String())
	assert.Equal(t, "1090.74", brou.Total.String())

	visa := summary.Accounts[1]
	assert.Equal(t, "2477", visa.Account.ID)
	assert.Equal(t, "1936.06", visa.LoanTotal.String())
	assert.Equal(t, "933.00", visa.ServiceTotal.String())

	other := summary.Accounts[2]
	assert.Equal(t, "9999", other.Account.ID)
	assert.Equal(t, "9999", other.Account.Name)
	assert.Equal(t, "1200.00", other.Total.String())

	assert.Equal(t, "2485.08", summary.LoanTotal.String())
	assert.Equal(t, "2674.72", summary.ServiceTotal.String())
	assert.Equal(t, "5159.80", summary.Total.String())
}

func TestGroupPendingByAccount_Empty(t *testing.T) {
	summary := GroupPendingByAccount(nil, ledger.Seed().Accounts)

	assert.Empty(t, summary.Accounts)
	assert.True(t, summary.Total.IsZero())
}
