package ledger

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// WarningCode names a data-entry inconsistency.
type WarningCode string

const (
	WarnBalanceMismatch      WarningCode = "BALANCE_MISMATCH"
	WarnPaymentsMismatch     WarningCode = "PAYMENTS_MISMATCH"
	WarnTotalAmountMismatch  WarningCode = "TOTAL_AMOUNT_MISMATCH"
	WarnRemainingMismatch    WarningCode = "REMAINING_MISMATCH"
	WarnExchangeMismatch     WarningCode = "EXCHANGE_MISMATCH"
	WarnContractDateMismatch WarningCode = "CONTRACT_DATE_MISMATCH"
	WarnInvalidIncome        WarningCode = "INVALID_INCOME"
)

// Warning is an observational finding. It never blocks processing.
type Warning struct {
	Code     WarningCode `json:"code"`
	Entity   string      `json:"entity"`
	Message  string      `json:"message"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
}

// ValidateLoan checks balance, payment count, total and remaining installments.
func ValidateLoan(l Loan) []Warning {
	var warnings []Warning
	entity := "loan:" + strconv.Itoa(l.ID)

	paid := l.Amount.Multiply(int64(l.PaidInstallments))
	if l.Status != LoanCompleted {
		expected, err := l.Capital.Subtract(paid)
		if err == nil && !expected.ApproxEqual(l.CurrentBalance, money.DefaultEpsilon) {
			warnings = append(warnings, Warning{
				Code:     WarnBalanceMismatch,
				Entity:   entity,
				Message:  fmt.Sprintf("balance for loan %s does not match capital minus paid installments", l.Name),
				Expected: expected.String(),
				Actual:   l.CurrentBalance.String(),
			})
		}
	}

	if len(l.PaymentHistory) != l.PaidInstallments {
		warnings = append(warnings, Warning{
			Code:     WarnPaymentsMismatch,
			Entity:   entity,
			Message:  fmt.Sprintf("loan %s records %d payments for %d paid installments", l.Name, len(l.PaymentHistory), l.PaidInstallments),
			Expected: strconv.Itoa(l.PaidInstallments),
			Actual:   strconv.Itoa(len(l.PaymentHistory)),
		})
	}

	total := l.Amount.Multiply(int64(l.Installments))
	if !total.ApproxEqual(l.TotalAmountToPay, money.DefaultEpsilon) {
		warnings = append(warnings, Warning{
			Code:     WarnTotalAmountMismatch,
			Entity:   entity,
			Message:  fmt.Sprintf("total to pay for loan %s does not match installments times amount", l.Name),
			Expected: total.String(),
			Actual:   l.TotalAmountToPay.String(),
		})
	}

	if remaining := l.Installments - l.PaidInstallments; remaining != l.RemainingInstallments {
		warnings = append(warnings, Warning{
			Code:     WarnRemainingMismatch,
			Entity:   entity,
			Message:  fmt.Sprintf("loan %s remaining installments out of sync", l.Name),
			Expected: strconv.Itoa(remaining),
			Actual:   strconv.Itoa(l.RemainingInstallments),
		})
	}

	return warnings
}

// ValidateService checks foreign-currency equivalents and contract dates.
func ValidateService(s Service) []Warning {
	var warnings []Warning
	entity := "service:" + s.ID

	if s.Price.Currency() != money.UYU && s.Price.UYUEquivalent != nil {
		expected := s.Price.Amount.Convert(money.UYU, decimal.NewFromFloat(s.Price.ExchangeRate))
		if !expected.ApproxEqual(s.Price.UYUEquivalent, money.DefaultEpsilon) {
			warnings = append(warnings, Warning{
				Code:     WarnExchangeMismatch,
				Entity:   entity,
				Message:  fmt.Sprintf("peso equivalent for %s does not match amount times exchange rate", s.Name),
				Expected: expected.String(),
				Actual:   s.Price.UYUEquivalent.String(),
			})
		}
	}

	for i, p := range s.PaymentHistory {
		if p.UYUAmount == nil || p.ExchangeRate == 0 || p.Amount.Currency() == money.UYU {
			continue
		}
		expected := p.Amount.Convert(money.UYU, decimal.NewFromFloat(p.ExchangeRate))
		if !expected.ApproxEqual(p.UYUAmount, money.DefaultEpsilon) {
			warnings = append(warnings, Warning{
				Code:     WarnExchangeMismatch,
				Entity:   fmt.Sprintf("%s:payment:%d", entity, i),
				Message:  fmt.Sprintf("payment on %s for %s has an inconsistent peso amount", FormatDate(p.Date), s.Name),
				Expected: expected.String(),
				Actual:   p.UYUAmount.String(),
			})
		}
	}

	if c := s.Contract; c != nil {
		if expected := c.ExpectedRenewal(); !expected.Equal(c.RenewalDate) {
			warnings = append(warnings, Warning{
				Code:     WarnContractDateMismatch,
				Entity:   entity,
				Message:  fmt.Sprintf("contract renewal for %s is not start date plus %d months", s.Name, c.DurationMonths),
				Expected: FormatDate(expected),
				Actual:   FormatDate(c.RenewalDate),
			})
		}
	}

	return warnings
}

// ValidateIncome checks that a record has a date, a positive amount and a description.
func ValidateIncome(r IncomeRecord) []Warning {
	var problems []string
	if r.Date.IsZero() {
		problems = append(problems, "missing date")
	}
	if !r.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if r.Description == "" {
		problems = append(problems, "missing description")
	}

	warnings := make([]Warning, 0, len(problems))
	for _, p := range problems {
		warnings = append(warnings, Warning{
			Code:    WarnInvalidIncome,
			Entity:  "income:" + r.Description,
			Message: p,
		})
	}
	return warnings
}

// ValidateLedger runs every check over the ledger.
func ValidateLedger(l Ledger) []Warning {
	var warnings []Warning
	for _, loan := range l.Loans {
		warnings = append(warnings, ValidateLoan(loan)...)
	}
	for _, svc := range l.Services {
		warnings = append(warnings, ValidateService(svc)...)
	}
	for _, inc := range l.Income {
		warnings = append(warnings, ValidateIncome(inc)...)
	}
	return warnings
}
