// Package ledger models the obligations tracked by the dashboard: loans paid
// in installments, recurring services, the accounts they are debited from and
// the payments recorded against them.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

var (
	// ErrLoanSettled is returned when a payment is appended to a loan with no remaining installments.
	ErrLoanSettled = errors.New("loan has no remaining installments")
	// ErrInvalidPayment is returned for payments without a date or a positive amount.
	ErrInvalidPayment = errors.New("invalid payment")
	// ErrInstallmentMismatch is returned when a payment names an installment other than the next one due.
	ErrInstallmentMismatch = errors.New("installment is not the next one due")
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
)

// PaymentStatus records how a payment stands relative to its due date.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentLate    PaymentStatus = "late"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentLate:
		return true
	}
	return false
}

// BillingCycle is how often a service charges.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingAnnual  BillingCycle = "annual"
)

// PaymentMethod identifies the instrument a payment was made with, e.g. "debit_6039".
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodUpload PaymentMethod = "upload"
)

// Payment is a single settled or scheduled charge.
type Payment struct {
	ID                string        `json:"id,omitempty"`
	Date              time.Time     `json:"date"`
	Amount            *money.Money  `json:"amount"`
	UYUAmount         *money.Money  `json:"uyu_amount,omitempty"`
	ExchangeRate      float64       `json:"exchange_rate,omitempty"`
	Status            PaymentStatus `json:"status"`
	Method            PaymentMethod `json:"method"`
	InstallmentNumber int           `json:"installment_number,omitempty"`
	Automatic         bool          `json:"automatic,omitempty"`
	Details           string        `json:"details,omitempty"`
}

// UYU returns the payment amount in pesos.
func (p Payment) UYU() *money.Money {
	if p.UYUAmount != nil {
		return p.UYUAmount
	}
	return p.Amount
}

func (p Payment) validate() error {
	if p.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidPayment)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayment, p.Status)
	}
	return nil
}

// Loan is a fixed-installment credit. Amounts are in pesos.
type Loan struct {
	ID                    int          `json:"id"`
	Name                  string       `json:"name"`
	Owner                 string       `json:"owner"`
	Account               string       `json:"account"`
	Capital               *money.Money `json:"capital"`
	Installments          int          `json:"installments"`
	Amount                *money.Money `json:"amount"`
	PaidInstallments      int          `json:"paid_installments"`
	InterestRate          float64      `json:"interest_rate"`
	Moratory              *float64     `json:"moratory"`
	CancellationFee       *money.Money `json:"cancellation_fee,omitempty"`
	Status                LoanStatus   `json:"status"`
	PaymentHistory        []Payment    `json:"payment_history"`
	CurrentBalance        *money.Money `json:"current_balance"`
	TotalAmountToPay      *money.Money `json:"total_amount_to_pay"`
	RemainingInstallments int          `json:"remaining_installments"`
	NextPaymentDate       *time.Time   `json:"next_payment_date"`
	IsOverdue             bool         `json:"is_overdue"`
}

// IsActive reports whether the loan still has installments to pay.
func (l Loan) IsActive() bool {
	return l.Status == LoanActive
}

// MoratoryRate returns the penalty percentage, zero when none is defined.
func (l Loan) MoratoryRate() float64 {
	if l.Moratory == nil {
		return 0
	}
	return *l.Moratory
}

// Clone returns a copy whose history and date can be modified independently.
func (l Loan) Clone() Loan {
	out := l
	out.PaymentHistory = append([]Payment(nil), l.PaymentHistory...)
	if l.NextPaymentDate != nil {
		next := *l.NextPaymentDate
		out.NextPaymentDate = &next
	}
	return out
}

// WithPayment returns the loan after recording p as its next installment.
// A non-zero p.InstallmentNumber must name that installment. History, paid/remaining counts, balance, next due date and status move
// together so the balance invariant holds after every append.
func (l Loan) WithPayment(p Payment) (Loan, error) {
	if err := p.validate(); err != nil {
		return l, err
	}
	if !l.IsActive() || l.RemainingInstallments <= 0 {
		return l, ErrLoanSettled
	}

	out := l.Clone()
	if p.Status == "" {
		p.Status = PaymentPaid
	}
	switch next := out.PaidInstallments + 1; {
	case p.InstallmentNumber == 0:
		p.InstallmentNumber = next
	case p.InstallmentNumber != next:
		return l, fmt.Errorf("%w: got %d, next is %d", ErrInstallmentMismatch, p.InstallmentNumber, next)
	}

	out.PaymentHistory = append(out.PaymentHistory, p)
	out.PaidInstallments++
	out.RemainingInstallments = out.Installments - out.PaidInstallments

	balance, err := out.CurrentBalance.Subtract(out.Amount)
	if err != nil {
		return l, fmt.Errorf("failed to update balance: %w", err)
	}
	if balance.IsNegative() {
		balance = money.Zero(balance.Currency())
	}
	out.CurrentBalance = balance
	out.IsOverdue = false

	if out.RemainingInstallments <= 0 {
		out.RemainingInstallments = 0
		out.CurrentBalance = money.Zero(balance.Currency())
		out.Status = LoanCompleted
		out.NextPaymentDate = nil
		return out, nil
	}

	base := p.Date
	if out.NextPaymentDate != nil {
		base = *out.NextPaymentDate
	}
	next := AddMonths(base, 1)
	out.NextPaymentDate = &next

	return out, nil
}

// Price is what a service charges per cycle, in its billing currency and in pesos.
type Price struct {
	Amount        *money.Money `json:"amount"`
	UYUEquivalent *money.Money `json:"uyu_equivalent"`
	ExchangeRate  float64      `json:"exchange_rate,omitempty"`
}

// Currency returns the billing currency.
func (p Price) Currency() string {
	return p.Amount.Currency()
}

// UYU returns the peso amount, falling back to Amount for peso-billed services.
func (p Price) UYU() *money.Money {
	if p.UYUEquivalent != nil {
		return p.UYUEquivalent
	}
	return p.Amount
}

// Contract is a term commitment attached to a service.
type Contract struct {
	StartDate         time.Time    `json:"start_date"`
	RenewalDate       time.Time    `json:"renewal_date"`
	DurationMonths    int          `json:"duration_months"`
	IsFixed           bool         `json:"is_fixed"`
	MonthlyEquivalent *money.Money `json:"monthly_equivalent,omitempty"`
}

// ExpectedRenewal is StartDate plus DurationMonths.
func (c Contract) ExpectedRenewal() time.Time {
	return AddMonths(c.StartDate, c.DurationMonths)
}

// Service is a recurring subscription. BillingDay is 0 when the service has no fixed day.
type Service struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	Account        string        `json:"account"`
	Method         PaymentMethod `json:"method"`
	Price          Price         `json:"price"`
	BillingCycle   BillingCycle  `json:"billing_cycle"`
	BillingDay     int           `json:"billing_day,omitempty"`
	Contract       *Contract     `json:"contract"`
	PaymentHistory []Payment     `json:"payment_history"`
}

// HasBillingDay reports whether a day-of-month rule is defined.
func (s Service) HasBillingDay() bool {
	return s.BillingDay >= 1 && s.BillingDay <= 31
}

// Clone returns a copy whose history and contract can be modified independently.
func (s Service) Clone() Service {
	out := s
	out.PaymentHistory = append([]Payment(nil), s.PaymentHistory...)
	if s.Contract != nil {
		c := *s.Contract
		out.Contract = &c
	}
	return out
}

// WithPayment returns the service with p appended to its history.
func (s Service) WithPayment(p Payment) (Service, error) {
	if err := p.validate(); err != nil {
		return s, err
	}
	if p.Status == "" {
		p.Status = PaymentPaid
	}
	out := s.Clone()
	out.PaymentHistory = append(out.PaymentHistory, p)
	return out, nil
}

// Account is a bank account or card that obligations are debited from.
type Account struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Expiry      string   `json:"expiry,omitempty"`
	Backup      bool     `json:"backup,omitempty"`
	Income      []string `json:"income,omitempty"`
	Services    []string `json:"services,omitempty"`
	LinkedLoans []int    `json:"linked_loans,omitempty"`
}

// IncomeRecord is a credit into one of the accounts.
type IncomeRecord struct {
	Date        time.Time    `json:"date"`
	Amount      *money.Money `json:"amount"`
	Description string       `json:"description"`
	Account     string       `json:"account"`
	Type        string       `json:"type"`
}

// ObligationKind distinguishes loan installments from service charges.
type ObligationKind string

const (
	ObligationLoan    ObligationKind = "loan"
	ObligationService ObligationKind = "service"
)

// ObligationSource identifies the loan or service an obligation belongs to.
type ObligationSource struct {
	Kind    ObligationKind `json:"kind"`
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Account string         `json:"account"`
}

// LoanSource builds the source reference for a loan.
func LoanSource(l Loan) ObligationSource {
	return ObligationSource{Kind: ObligationLoan, ID: strconv.Itoa(l.ID), Name: l.Name, Account: l.Account}
}

// ServiceSource builds the source reference for a service.
func ServiceSource(s Service) ObligationSource {
	return ObligationSource{Kind: ObligationService, ID: s.ID, Name: s.Name, Account: s.Account}
}

// PendingObligation is a due or overdue charge derived from the ledger as of a date.
// It is recomputed on every query and never stored.
type PendingObligation struct {
	Source            ObligationSource `json:"source"`
	DueDate           time.Time        `json:"due_date"`
	Amount            *money.Money     `json:"amount"`
	ForeignAmount     *money.Money     `json:"foreign_amount,omitempty"`
	IsOverdue         bool             `json:"is_overdue"`
	DaysOverdue       int              `json:"days_overdue"`
	LateFee           *money.Money     `json:"late_fee"`
	InstallmentNumber int              `json:"installment_number,omitempty"`
}

// Key identifies the obligation across requests: "loan:3:2025-01-03".
func (o PendingObligation) Key() string {
	return fmt.Sprintf("%s:%s:%s", o.Source.Kind, o.Source.ID, o.DueDate.Format(time.DateOnly))
}

// Total is the amount plus any accrued late fee.
func (o PendingObligation) Total() *money.Money {
	total, err := o.Amount.Add(o.LateFee)
	if err != nil {
		return o.Amount
	}
	return total
}
