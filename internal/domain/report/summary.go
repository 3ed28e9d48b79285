// Package report groups ledger payments and pending obligations for display
// and exports them as CSV and XLSX.
package report

import (
	"sort"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// PaymentEntry is one payment together with the loan or service it belongs to.
type PaymentEntry struct {
	Source  ledger.ObligationSource `json:"source"`
	Payment ledger.Payment          `json:"payment"`
}

// MonthGroup holds the payments made in one calendar month.
type MonthGroup struct {
	Month    string         `json:"month"` // YYYY-MM
	Payments []PaymentEntry `json:"payments"`
	Total    *money.Money   `json:"total"` // pesos
}

// Entries flattens the payment history of every loan and service, newest first.
func Entries(loans []ledger.Loan, services []ledger.Service) []PaymentEntry {
	var out []PaymentEntry
	for _, l := range loans {
		src := ledger.LoanSource(l)
		for _, p := range l.PaymentHistory {
			out = append(out, PaymentEntry{Source: src, Payment: p})
		}
	}
	for _, s := range services {
		src := ledger.ServiceSource(s)
		for _, p := range s.PaymentHistory {
			out = append(out, PaymentEntry{Source: src, Payment: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Payment.Date.After(out[j].Payment.Date)
	})
	return out
}

// GroupByMonth groups every payment by YYYY-MM, newest month first, with
// the month's total in pesos. Foreign payments without a peso amount are
// listed but not totalled.
func GroupByMonth(loans []ledger.Loan, services []ledger.Service) []MonthGroup {
	var groups []MonthGroup
	index := map[string]int{}

	for _, e := range Entries(loans, services) {
		month := e.Payment.Date.Format("2006-01")
		i, ok := index[month]
		if !ok {
			i = len(groups)
			index[month] = i
			groups = append(groups, MonthGroup{Month: month, Total: money.Zero(money.UYU)})
		}
		g := &groups[i]
		g.Payments = append(g.Payments, e)
		if uyu := e.Payment.UYU(); uyu.Currency() == money.UYU {
			g.Total = g.Total.MustAdd(uyu)
		}
	}
	return groups
}

// AccountPending lists the obligations debited from one account.
type AccountPending struct {
	Account      ledger.Account             `json:"account"`
	Obligations  []ledger.PendingObligation `json:"obligations"`
	LoanTotal    *money.Money               `json:"loan_total"`
	ServiceTotal *money.Money               `json:"service_total"`
	Total        *money.Money               `json:"total"`
}

// PaymentSummary groups pending obligations by account.
type PaymentSummary struct {
	Accounts     []AccountPending `json:"accounts"`
	LoanTotal    *money.Money     `json:"loan_total"`
	ServiceTotal *money.Money     `json:"service_total"`
	Total        *money.Money     `json:"total"`
}

// GroupPendingByAccount groups pending obligations by the account they are
// debited from. Accounts keep ledger order; accounts with nothing pending are
// left out, and obligations on unknown accounts get a bare account entry.
// Totals include accrued late fees.
func GroupPendingByAccount(pending []ledger.PendingObligation, accounts []ledger.Account) PaymentSummary {
	summary := PaymentSummary{
		LoanTotal:    money.Zero(money.UYU),
		ServiceTotal: money.Zero(money.UYU),
		Total:        money.Zero(money.UYU),
	}

	byAccount := map[string][]ledger.PendingObligation{}
	var unknown []string
	known := map[string]bool{}
	for _, a := range accounts {
		known[a.ID] = true
	}
	for _, o := range pending {
		id := o.Source.Account
		if !known[id] {
			if _, seen := byAccount[id]; !seen {
				unknown = append(unknown, id)
			}
		}
		byAccount[id] = append(byAccount[id], o)
	}

	ordered := append([]ledger.Account(nil), accounts...)
	for _, id := range unknown {
		ordered = append(ordered, ledger.Account{ID: id, Name: id})
	}

	for _, a := range ordered {
		obligations := byAccount[a.ID]
		if len(obligations) == 0 {
			continue
		}
		group := AccountPending{
			Account:      a,
			Obligations:  obligations,
			LoanTotal:    money.Zero(money.UYU),
			ServiceTotal: money.Zero(money.UYU),
		}
		for _, o := range obligations {
			if o.Source.Kind == ledger.ObligationLoan {
				group.LoanTotal = group.LoanTotal.MustAdd(o.Total())
			} else {
				group.ServiceTotal = group.ServiceTotal.MustAdd(o.Total())
			}
		}
		group.Total = group.LoanTotal.MustAdd(group.ServiceTotal)

		summary.LoanTotal = summary.LoanTotal.MustAdd(group.LoanTotal)
		summary.ServiceTotal = summary.ServiceTotal.MustAdd(group.ServiceTotal)
		summary.Accounts = append(summary.Accounts, group)
	}
	summary.Total = summary.LoanTotal.MustAdd(summary.ServiceTotal)

	return summary
}
