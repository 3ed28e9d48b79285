// Package service projects recurring service charges: upcoming due dates,
// the monthly cost and the state of term contracts.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

const (
	// ExpiringSoonDays flags contracts renewing within this many days.
	ExpiringSoonDays   = 30
	annualContractDays = 365
)

// UpcomingPayment is the next charge of a service.
type UpcomingPayment struct {
	Service   ledger.ObligationSource `json:"service"`
	DueDate   time.Time               `json:"due_date"`
	Amount    *money.Money            `json:"amount"`
	UYUAmount *money.Money            `json:"uyu_amount"`
	DaysUntil int                     `json:"days_until"`
	Cycle     ledger.BillingCycle     `json:"billing_cycle"`
}

// ContractStatus is how far a service is through its contract.
type ContractStatus struct {
	Service          ledger.ObligationSource `json:"service"`
	Contract         ledger.Contract         `json:"contract"`
	Progress         float64                 `json:"progress"`
	DaysUntilRenewal int                     `json:"days_until_renewal"`
	IsExpiringSoon   bool                    `json:"is_expiring_soon"`
}

// GetUpcomingPayments returns the next due date of every service, ascending.
// Monthly services without a billing day and annual services whose renewal
// is already past are skipped.
func GetUpcomingPayments(services []ledger.Service, asOf time.Time) []UpcomingPayment {
	asOf = ledger.DateOf(asOf)

	var out []UpcomingPayment
	for _, svc := range services {
		due, ok := nextDueDate(svc, asOf)
		if !ok {
			continue
		}
		out = append(out, UpcomingPayment{
			Service:   ledger.ServiceSource(svc),
			DueDate:   due,
			Amount:    svc.Price.Amount,
			UYUAmount: svc.Price.UYU(),
			DaysUntil: ledger.DaysBetween(asOf, due),
			Cycle:     svc.BillingCycle,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// nextDueDate is this month's billing day, rolled one month forward when it
// is already before asOf. Days past the end of a month clamp to its last day.
func nextDueDate(svc ledger.Service, asOf time.Time) (time.Time, bool) {
	switch svc.BillingCycle {
	case ledger.BillingAnnual:
		if svc.Contract == nil {
			return time.Time{}, false
		}
		renewal := ledger.DateOf(svc.Contract.RenewalDate)
		if renewal.Before(asOf) {
			return time.Time{}, false
		}
		return renewal, true
	default:
		if !svc.HasBillingDay() {
			return time.Time{}, false
		}
		due := billingDate(asOf.Year(), asOf.Month(), svc.BillingDay)
		if due.Before(asOf) {
			next := ledger.AddMonths(ledger.Date(asOf.Year(), asOf.Month(), 1), 1)
			due = billingDate(next.Year(), next.Month(), svc.BillingDay)
		}
		return due, true
	}
}

func billingDate(year int, month time.Month, day int) time.Time {
	return ledger.Date(year, month, min(day, ledger.DaysIn(year, month)))
}

// MonthlyCost is what a service costs per month in pesos.
func MonthlyCost(svc ledger.Service) *money.Money {
	if svc.BillingCycle != ledger.BillingAnnual {
		return svc.Price.UYU()
	}
	if svc.Contract != nil && svc.Contract.MonthlyEquivalent != nil {
		return svc.Contract.MonthlyEquivalent
	}
	return svc.Price.UYU().DivideDecimal(decimal.NewFromInt(12))
}

// GetMonthlyTotal sums the monthly cost of every service.
func GetMonthlyTotal(services []ledger.Service) *money.Money {
	total := money.Zero(money.UYU)
	for _, svc := range services {
		total = total.MustAdd(MonthlyCost(svc))
	}
	return total
}

// GetContractStatus reports progress for every service with a contract.
// Annual billing uses a 365-day denominator, fixed terms the literal span.
func GetContractStatus(services []ledger.Service, asOf time.Time) []ContractStatus {
	asOf = ledger.DateOf(asOf)

	var out []ContractStatus
	for _, svc := range services {
		if svc.Contract == nil {
			continue
		}
		c := *svc.Contract

		total := annualContractDays
		if svc.BillingCycle != ledger.BillingAnnual {
			total = ledger.DaysBetween(c.StartDate, c.RenewalDate)
		}
		progress := 100.0
		if total > 0 {
			elapsed := ledger.DaysBetween(c.StartDate, asOf)
			progress = float64(elapsed) / float64(total) * 100
		}
		progress = math.Round(math.Max(0, math.Min(100, progress))*100) / 100

		days := ledger.DaysBetween(asOf, c.RenewalDate)
		out = append(out, ContractStatus{
			Service:          ledger.ServiceSource(svc),
			Contract:         c,
			Progress:         progress,
			DaysUntilRenewal: days,
			IsExpiringSoon:   days <= ExpiringSoonDays,
		})
	}
	return out
}

// PendingObligations turns the upcoming charges into obligations the
// reconciler can match. Amounts are in pesos; foreign prices ride along.
func PendingObligations(services []ledger.Service, asOf time.Time) []ledger.PendingObligation {
	upcoming := GetUpcomingPayments(services, asOf)
	out := make([]ledger.PendingObligation, 0, len(upcoming))
	for _, u := range upcoming {
		o := ledger.PendingObligation{
			Source:  u.Service,
			DueDate: u.DueDate,
			Amount:  u.UYUAmount,
			LateFee: money.Zero(money.UYU),
		}
		if u.Amount.Currency() != money.UYU {
			o.ForeignAmount = u.Amount
		}
		out = append(out, o)
	}
	return out
}

// Service provides subscription queries over the ledger repository
type Service struct {
	repo   repository.LedgerRepository
	logger *slog.Logger
}

// NewService creates a new subscriptions service
func NewService(repo repository.LedgerRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListServices returns every service.
func (s *Service) ListServices(ctx context.Context) ([]ledger.Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// Upcoming returns the next charge of every service.
func (s *Service) Upcoming(ctx context.Context, asOf time.Time) ([]UpcomingPayment, error) {
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return GetUpcomingPayments(services, ledger.AsOfOrToday(asOf)), nil
}

// MonthlyTotal returns the summed monthly cost.
func (s *Service) MonthlyTotal(ctx context.Context) (*money.Money, error) {
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return GetMonthlyTotal(services), nil
}

// Contracts returns the status of every contract.
func (s *Service) Contracts(ctx context.Context, asOf time.Time) ([]ContractStatus, error) {
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return GetContractStatus(services, ledger.AsOfOrToday(asOf)), nil
}

// Pending returns the upcoming charges as pending obligations.
func (s *Service) Pending(ctx context.Context, asOf time.Time) ([]ledger.PendingObligation, error) {
	services, err := s.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return PendingObligations(services, ledger.AsOfOrToday(asOf)), nil
}

// RecordPayment appends p to the service history.
func (s *Service) RecordPayment(ctx context.Context, id string, p ledger.Payment) (*ledger.Service, error) {
	svc, err := s.repo.AppendServicePayment(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment for service %s: %w", id, err)
	}
	s.logger.Info("service payment recorded",
		slog.String("service_id", id),
		slog.String("amount", p.Amount.String()),
	)
	return svc, nil
}
