// Package service projects loan schedules, overdue installments and late fees
// from the ledger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
)

// Service provides loan queries over the ledger repository
type Service struct {
	repo   repository.LedgerRepository
	logger *slog.Logger
}

// NewService creates a new loans service
func NewService(repo repository.LedgerRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListLoans returns every loan, each with its overdue flag evaluated at asOf.
func (s *Service) ListLoans(ctx context.Context, asOf time.Time) ([]ledger.Loan, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	asOf = ledger.AsOfOrToday(asOf)
	for i := range loans {
		if loans[i].IsActive() && loans[i].NextPaymentDate != nil && loans[i].NextPaymentDate.Before(asOf) {
			loans[i].IsOverdue = true
		}
	}
	return loans, nil
}

// Projection returns the remaining schedule of one loan.
func (s *Service) Projection(ctx context.Context, id int, asOf time.Time) (*Projection, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	p := ProjectLoanPayments(*loan, ledger.AsOfOrToday(asOf))
	return &p, nil
}

// Overdue returns the overdue active loans.
func (s *Service) Overdue(ctx context.Context, asOf time.Time) ([]OverdueLoan, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	overdue := GetOverdueLoans(loans, ledger.AsOfOrToday(asOf))
	if len(overdue) > 0 {
		s.logger.Info("overdue loans found", slog.Int("count", len(overdue)))
	}
	return overdue, nil
}

// Pending returns the pending installments of every active loan.
func (s *Service) Pending(ctx context.Context, asOf time.Time) ([]ledger.PendingObligation, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return PendingObligations(loans, ledger.AsOfOrToday(asOf)), nil
}

// RecordPayment appends p to the loan and logs any invariant drift it leaves behind.
func (s *Service) RecordPayment(ctx context.Context, id int, p ledger.Payment) (*ledger.Loan, error) {
	loan, err := s.repo.AppendLoanPayment(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment for loan %d: %w", id, err)
	}

	s.logger.Info("loan payment recorded",
		slog.Int("loan_id", id),
		slog.Int("installment", loan.PaidInstallments),
		slog.String("balance", loan.CurrentBalance.String()),
	)
	for _, w := range ledger.ValidateLoan(*loan) {
		s.logger.Warn("ledger validation warning",
			slog.String("code", string(w.Code)),
			slog.String("entity", w.Entity),
			slog.String("message", w.Message),
		)
	}
	return loan, nil
}
