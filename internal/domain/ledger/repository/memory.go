package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

// MemoryRepository keeps the ledger in process. Reads return copies.
type MemoryRepository struct {
	mu   sync.RWMutex
	data ledger.Ledger
}

// NewMemoryRepository creates a repository holding l.
func NewMemoryRepository(l ledger.Ledger) *MemoryRepository {
	return &MemoryRepository{data: l}
}

// NewSeededRepository creates a repository holding the built-in seed ledger.
func NewSeededRepository() *MemoryRepository {
	return NewMemoryRepository(ledger.Seed())
}

func (r *MemoryRepository) ListLoans(_ context.Context) ([]ledger.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ledger.Loan, len(r.data.Loans))
	for i, l := range r.data.Loans {
		out[i] = l.Clone()
	}
	return out, nil
}

func (r *MemoryRepository) GetLoan(_ context.Context, id int) (*ledger.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.loanIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	l := r.data.Loans[i].Clone()
	return &l, nil
}

func (r *MemoryRepository) ListServices(_ context.Context) ([]ledger.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ledger.Service, len(r.data.Services))
	for i, s := range r.data.Services {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *MemoryRepository) GetService(_ context.Context, id string) (*ledger.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.serviceIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	s := r.data.Services[i].Clone()
	return &s, nil
}

func (r *MemoryRepository) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ledger.Account(nil), r.data.Accounts...), nil
}

func (r *MemoryRepository) ListIncome(_ context.Context) ([]ledger.IncomeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ledger.IncomeRecord(nil), r.data.Income...), nil
}

// AppendLoanPayment records p against the loan under the write lock.
func (r *MemoryRepository) AppendLoanPayment(_ context.Context, id int, p ledger.Payment) (*ledger.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.loanIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("loan %d: %w", id, ErrNotFound)
	}
	updated, err := r.data.Loans[i].WithPayment(p)
	if err != nil {
		return nil, err
	}
	r.data.Loans[i] = updated

	out := updated.Clone()
	return &out, nil
}

// AppendServicePayment records p against the service under the write lock.
func (r *MemoryRepository) AppendServicePayment(_ context.Context, id string, p ledger.Payment) (*ledger.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.serviceIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	updated, err := r.data.Services[i].WithPayment(p)
	if err != nil {
		return nil, err
	}
	r.data.Services[i] = updated

	out := updated.Clone()
	return &out, nil
}

func (r *MemoryRepository) loanIndex(id int) int {
	for i, l := range r.data.Loans {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryRepository) serviceIndex(id string) int {
	for i, s := range r.data.Services {
		if s.ID == id {
			return i
		}
	}
	return -1
}
