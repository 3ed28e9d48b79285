package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

// ServiceOverlay keeps service payment history in local state so the
// in-memory ledger does not lose it on restart. Services stored in local
// state shadow the base repository's copy of the same id.
type ServiceOverlay struct {
	LedgerRepository
	state *LocalState
	mu    sync.Mutex
}

// NewServiceOverlay wraps base with the services persisted in state.
func NewServiceOverlay(base LedgerRepository, state *LocalState) *ServiceOverlay {
	return &ServiceOverlay{LedgerRepository: base, state: state}
}

func (o *ServiceOverlay) ListServices(ctx context.Context) ([]ledger.Service, error) {
	base, err := o.LedgerRepository.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	data, err := o.state.Load(ctx)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]ledger.Service, len(data.Services))
	for _, s := range data.Services {
		stored[s.ID] = s
	}
	for i, s := range base {
		if saved, ok := stored[s.ID]; ok {
			base[i] = saved
			delete(stored, s.ID)
		}
	}
	for _, s := range data.Services {
		if _, ok := stored[s.ID]; ok {
			base = append(base, s)
		}
	}
	return base, nil
}

func (o *ServiceOverlay) GetService(ctx context.Context, id string) (*ledger.Service, error) {
	data, err := o.state.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range data.Services {
		if s.ID == id {
			out := s.Clone()
			return &out, nil
		}
	}
	return o.LedgerRepository.GetService(ctx, id)
}

// AppendServicePayment records p on the current copy of the service and
// writes the result to local state. The base repository is left untouched.
func (o *ServiceOverlay) AppendServicePayment(ctx context.Context, id string, p ledger.Payment) (*ledger.Service, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, err := o.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := current.WithPayment(p)
	if err != nil {
		return nil, err
	}
	if err := o.state.UpsertService(ctx, updated); err != nil {
		return nil, fmt.Errorf("service %s: %w", id, err)
	}

	out := updated.Clone()
	return &out, nil
}
