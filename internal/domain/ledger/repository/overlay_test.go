package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

func TestServiceOverlay_PaymentsSurviveRestart(t *testing.T) {
	state, path := openState(t)
	ctx := context.Background()

	charge := ledger.Payment{
		Date:   ledger.Date(2025, time.January, 10),
		Amount: money.NewFromFloat(541.72, money.UYU),
		Method: ledger.MethodUpload,
	}
	updated, err := NewServiceOverlay(NewSeededRepository(), state).AppendServicePayment(ctx, "spotify", charge)
	require.NoError(t, err)
	require.Len(t, updated.PaymentHistory, 3)

	require.NoError(t, state.Close())
	reopened, err := OpenLocalState(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	base := NewSeededRepository()
	repo := NewServiceOverlay(base, reopened)

	svc, err := repo.GetService(ctx, "spotify")
	require.NoError(t, err)
	assert.Len(t, svc.PaymentHistory, 3)
	assert.Equal(t, ledger.PaymentPaid, svc.PaymentHistory[2].Status)

	services, err := repo.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, len(ledger.Seed().Services), "stored services replace, not duplicate")
	for _, s := range services {
		if s.ID == "spotify" {
			assert.Len(t, s.PaymentHistory, 3)
		}
	}

	fromBase, err := base.GetService(ctx, "spotify")
	require.NoError(t, err)
	assert.Len(t, fromBase.PaymentHistory, 2)

	t.Run("ClearRestoresSeed", func(t *testing.T) {
		require.NoError(t, reopened.Clear(ctx))
		svc, err := repo.GetService(ctx, "spotify")
		require.NoError(t, err)
		assert.Len(t, svc.PaymentHistory, 2)
	})
}

func TestServiceOverlay_Errors(t *testing.T) {
	state, _ := openState(t)
	ctx := context.Background()
	repo := NewServiceOverlay(NewSeededRepository(), state)

	_, err := repo.GetService(ctx, "netflix")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.AppendServicePayment(ctx, "netflix", ledger.Payment{
		Date:   ledger.Date(2025, time.January, 10),
		Amount: money.NewFromFloat(10, money.UYU),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.AppendServicePayment(ctx, "spotify", ledger.Payment{})
	assert.ErrorIs(t, err, ledger.ErrInvalidPayment)

	data, err := state.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Services, "failed appends store nothing")
}

func TestServiceOverlay_StoredOnlyServiceIsListed(t *testing.T) {
	state, _ := openState(t)
	ctx := context.Background()

	extra := ledger.Service{ID: "netflix", Name: "Netflix", BillingCycle: ledger.Seed().Services[0].BillingCycle}
	require.NoError(t, state.UpsertService(ctx, extra))

	services, err := NewServiceOverlay(NewSeededRepository(), state).ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, len(ledger.Seed().Services)+1)
	assert.Equal(t, "netflix", services[len(services)-1].ID)
}
