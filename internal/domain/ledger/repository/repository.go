// Package repository stores the ledger: loans, services, accounts and income.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

// ErrNotFound is returned when a loan or service does not exist.
var ErrNotFound = errors.New("not found")

// LedgerRepository is the store the projectors and the reconciler read from.
// Append operations are atomic: the stored entity either reflects the whole
// payment or none of it.
type LedgerRepository interface {
	ListLoans(ctx context.Context) ([]ledger.Loan, error)
	GetLoan(ctx context.Context, id int) (*ledger.Loan, error)
	ListServices(ctx context.Context) ([]ledger.Service, error)
	GetService(ctx context.Context, id string) (*ledger.Service, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	ListIncome(ctx context.Context) ([]ledger.IncomeRecord, error)
	AppendLoanPayment(ctx context.Context, id int, p ledger.Payment) (*ledger.Loan, error)
	AppendServicePayment(ctx context.Context, id string, p ledger.Payment) (*ledger.Service, error)
}

// Snapshot reads the whole ledger.
func Snapshot(ctx context.Context, repo LedgerRepository) (ledger.Ledger, error) {
	var (
		out ledger.Ledger
		err error
	)
	if out.Loans, err = repo.ListLoans(ctx); err != nil {
		return out, fmt.Errorf("failed to list loans: %w", err)
	}
	if out.Services, err = repo.ListServices(ctx); err != nil {
		return out, fmt.Errorf("failed to list services: %w", err)
	}
	if out.Accounts, err = repo.ListAccounts(ctx); err != nil {
		return out, fmt.Errorf("failed to list accounts: %w", err)
	}
	if out.Income, err = repo.ListIncome(ctx); err != nil {
		return out, fmt.Errorf("failed to list income: %w", err)
	}
	return out, nil
}
