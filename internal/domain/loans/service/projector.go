package service

import (
	"sort"
	"time"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// PenaltyPeriodDays is the denominator of the daily-prorated moratory rate.
const PenaltyPeriodDays = 30

// ProjectedPayment is a future or overdue installment derived from the loan schedule.
type ProjectedPayment struct {
	InstallmentNumber int          `json:"installment_number"`
	DueDate           time.Time    `json:"due_date"`
	Amount            *money.Money `json:"amount"`
	IsOverdue         bool         `json:"is_overdue"`
	DaysOverdue       int          `json:"days_overdue"`
	LateFee           *money.Money `json:"late_fee"`
}

// Projection is the remaining schedule of a loan as of a date.
type Projection struct {
	LoanID         int                `json:"loan_id"`
	Payments       []ProjectedPayment `json:"payments"`
	TotalProjected *money.Money       `json:"total_projected"`
	HasOverdue     bool               `json:"has_overdue"`
	TotalLateFees  *money.Money       `json:"total_late_fees"`
}

// OverdueLoan is an active loan with a missed due date.
type OverdueLoan struct {
	Loan                   ledger.Loan  `json:"loan"`
	DaysOverdue            int          `json:"days_overdue"`
	LateFee                *money.Money `json:"late_fee"`
	ProjectedTotalWithFees *money.Money `json:"projected_total_with_fees"`
}

// LateFee is amount × moratory% × days / 30. It is zero without a rate or
// when the installment is not overdue.
func LateFee(amount *money.Money, moratory float64, days int) *money.Money {
	if amount == nil {
		return money.Zero(money.UYU)
	}
	return amount.ProratedPenalty(moratory, days, PenaltyPeriodDays)
}

// ProjectLoanPayments generates the remaining installments of loan, one
// calendar month apart, starting at its next payment date (asOf when unset).
func ProjectLoanPayments(loan ledger.Loan, asOf time.Time) Projection {
	asOf = ledger.DateOf(asOf)
	currency := loan.Amount.Currency()
	if currency == "" {
		currency = money.UYU
	}

	p := Projection{
		LoanID:         loan.ID,
		Payments:       []ProjectedPayment{},
		TotalProjected: money.Zero(currency),
		TotalLateFees:  money.Zero(currency),
	}
	if loan.RemainingInstallments <= 0 {
		return p
	}

	start := asOf
	if loan.NextPaymentDate != nil {
		start = ledger.DateOf(*loan.NextPaymentDate)
	}

	for i := 0; i < loan.RemainingInstallments; i++ {
		due := ledger.AddMonths(start, i)
		pp := ProjectedPayment{
			InstallmentNumber: loan.PaidInstallments + i + 1,
			DueDate:           due,
			Amount:            loan.Amount,
			LateFee:           money.Zero(currency),
		}
		if due.Before(asOf) {
			pp.IsOverdue = true
			pp.DaysOverdue = ledger.DaysBetween(due, asOf)
			pp.LateFee = LateFee(loan.Amount, loan.MoratoryRate(), pp.DaysOverdue)
			p.HasOverdue = true
		}

		p.TotalLateFees = p.TotalLateFees.MustAdd(pp.LateFee)
		p.TotalProjected = p.TotalProjected.MustAdd(pp.Amount).MustAdd(pp.LateFee)
		p.Payments = append(p.Payments, pp)
	}

	return p
}

// GetOverdueLoans returns active loans flagged overdue or whose next payment
// date is strictly before asOf. A loan with no next date and no flag is skipped.
func GetOverdueLoans(loans []ledger.Loan, asOf time.Time) []OverdueLoan {
	asOf = ledger.DateOf(asOf)

	var out []OverdueLoan
	for _, loan := range loans {
		if !loan.IsActive() {
			continue
		}
		late := loan.IsOverdue || (loan.NextPaymentDate != nil && loan.NextPaymentDate.Before(asOf))
		if !late {
			continue
		}

		days := 0
		if loan.NextPaymentDate != nil {
			days = max(ledger.DaysBetween(*loan.NextPaymentDate, asOf), 0)
		}

		projection := ProjectLoanPayments(loan, asOf)
		total := loan.CurrentBalance.MustAdd(projection.TotalLateFees)

		out = append(out, OverdueLoan{
			Loan:                   loan,
			DaysOverdue:            days,
			LateFee:                LateFee(loan.Amount, loan.MoratoryRate(), days),
			ProjectedTotalWithFees: total,
		})
	}
	return out
}

// PendingObligations lists, per active loan, every overdue projected
// installment plus the next upcoming one, ordered by due date.
func PendingObligations(loans []ledger.Loan, asOf time.Time) []ledger.PendingObligation {
	var out []ledger.PendingObligation
	for _, loan := range loans {
		if !loan.IsActive() {
			continue
		}
		source := ledger.LoanSource(loan)
		for _, pp := range ProjectLoanPayments(loan, asOf).Payments {
			out = append(out, ledger.PendingObligation{
				Source:            source,
				DueDate:           pp.DueDate,
				Amount:            pp.Amount,
				IsOverdue:         pp.IsOverdue,
				DaysOverdue:       pp.DaysOverdue,
				LateFee:           pp.LateFee,
				InstallmentNumber: pp.InstallmentNumber,
			})
			if !pp.IsOverdue {
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}
