package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/pkg/logging"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

func newSeedRepo() *repository.MemoryRepository { return repository.NewSeededRepository() }

func discard() *slog.Logger { return logging.Discard() }

func testContext(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

func findPending(t *testing.T, pending []ledger.PendingObligation, key string) ledger.PendingObligation {
	t.Helper()
	for _, o := range pending {
		if o.Key() == key {
			return o
		}
	}
	t.Fatalf("pending obligation %s not found", key)
	return ledger.PendingObligation{}
}

type failingRecorder struct{}

func (failingRecorder) SavePayment(context.Context, repository.RecordedPayment) (repository.RecordedPayment, error) {
	return repository.RecordedPayment{}, errors.New("disk full")
}

func (failingRecorder) Payments(context.Context) ([]repository.RecordedPayment, error) {
	return nil, nil
}

func TestReconciler_PendingSortedByDueDate(t *testing.T) {
	r := New(newSeedRepo(), nil, discard())
	pending, err := r.Pending(testContext(t), ledger.Date(2025, time.January, 10))
	require.NoError(t, err)

	for i := 1; i < len(pending); i++ {
		assert.False(t, pending[i].DueDate.Before(pending[i-1].DueDate), "out of order at %d", i)
	}
	assert.Equal(t, "loan:1:2024-12-22", pending[0].Key())
	assert.Equal(t, "service:google-one:2025-12-01", pending[len(pending)-1].Key())
}

func TestReconciler_Match(t *testing.T) {
	r := New(newSeedRepo(), nil, discard())
	asOf := ledger.Date(2025, time.January, 10)

	match, suggestions, err := r.Match(testContext(t), "Pago de $541.72 Spotify Premium Familiar", nil, asOf)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "service:spotify:2025-02-03", match.Key())
	assert.Empty(t, suggestions)

	match, suggestions, err = r.Match(testContext(t), "Comprobante Spotfy Premium 541,72", nil, asOf)
	require.NoError(t, err)
	assert.Nil(t, match)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "spotify", suggestions[0].Obligation.Source.ID)
}

func TestSuggest(t *testing.T) {
	asOf := ledger.Date(2025, time.January, 10)
	pending, err := New(newSeedRepo(), nil, discard()).Pending(testContext(t), asOf)
	require.NoError(t, err)

	suggestions := Suggest("Spotfy Premium 541,72", pending, 3)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, "spotify", s.Obligation.Source.ID)
	assert.True(t, s.Evidence.Amount)
	assert.False(t, s.Evidence.Name)
	assert.InDelta(t, 2.0/3.0, s.NameSimilarity, 0.001)
	assert.Equal(t, 76, s.Score)

	assert.Empty(t, Suggest("nada que ver", pending, 3))
}

func TestSuggest_Limit(t *testing.T) {
	due := ledger.Date(2025, time.March, 1)
	pending := []ledger.PendingObligation{
		obligation("1", "Cuota Auto", 100, due, false),
		obligation("2", "Cuota Moto", 100, due, false),
		obligation("3", "Cuota Casa", 100, due, false),
	}

	all := Suggest("cuota 100,00", pending, 0)
	assert.Len(t, all, 3)
	assert.Len(t, Suggest("cuota 100,00", pending, 2), 2)
}

func TestReconciler_ConfirmLoan(t *testing.T) {
	ctx := testContext(t)
	repo := newSeedRepo()
	state, err := repository.OpenLocalState(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	r := New(repo, state, discard())
	r.now = func() time.Time { return time.Date(2025, time.January, 10, 15, 4, 5, 0, time.UTC) }

	pending, err := r.Pending(ctx, ledger.Date(2025, time.January, 10))
	require.NoError(t, err)
	o := findPending(t, pending, "loan:3:2025-01-03")

	recorded, err := r.Confirm(ctx, o, Upload{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(recorded.ID, "PAY-"))
	assert.Equal(t, "doc-1", recorded.DocumentID)
	assert.Equal(t, ledger.PaymentLate, recorded.Status)
	assert.Equal(t, ledger.MethodUpload, recorded.Method)
	assert.Equal(t, 4, recorded.InstallmentNumber)
	assert.Equal(t, ledger.Date(2025, time.January, 10), recorded.Date)

	loan, err := repo.GetLoan(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, loan.PaidInstallments)
	assert.Len(t, loan.PaymentHistory, 4)

	saved, err := state.Payments(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, o.Source, saved[0].Source)
	require.NotNil(t, saved[0].DueDate)
	assert.True(t, saved[0].DueDate.Equal(o.DueDate))
}

func TestReconciler_ConfirmService(t *testing.T) {
	ctx := testContext(t)
	repo := newSeedRepo()
	r := New(repo, nil, discard())

	pending, err := r.Pending(ctx, ledger.Date(2025, time.January, 10))
	require.NoError(t, err)
	o := findPending(t, pending, "service:spotify:2025-02-03")

	paidOn := ledger.Date(2025, time.February, 3)
	recorded, err := r.Confirm(ctx, o, Upload{PaidOn: paidOn, Details: "Spotify"})
	require.NoError(t, err)
	assert.Equal(t, paidOn, recorded.Date)

	svc, err := repo.GetService(ctx, "spotify")
	require.NoError(t, err)
	require.Len(t, svc.PaymentHistory, 3)

	last := svc.PaymentHistory[2]
	assert.Equal(t, money.USD, last.Amount.Currency())
	assert.Equal(t, "11.99", last.Amount.String())
	assert.Equal(t, "541.72", last.UYUAmount.String())
	assert.InDelta(t, 45.18, last.ExchangeRate, 0.001)
	assert.Equal(t, ledger.MethodUpload, last.Method)
}

func TestReconciler_ConfirmTwiceSettlesOnce(t *testing.T) {
	ctx := testContext(t)
	asOf := ledger.Date(2025, time.January, 10)

	t.Run("loan installment", func(t *testing.T) {
		repo := newSeedRepo()
		r := New(repo, nil, discard())
		pending, err := r.Pending(ctx, asOf)
		require.NoError(t, err)
		o := findPending(t, pending, "loan:3:2025-01-03")

		_, err = r.Confirm(ctx, o, Upload{DocumentID: "receipt-1"})
		require.NoError(t, err)
		_, err = r.Confirm(ctx, o, Upload{DocumentID: "receipt-2"})
		assert.ErrorIs(t, err, ErrAlreadySettled)

		loan, err := repo.GetLoan(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, loan.PaidInstallments)
		assert.Equal(t, "12334.44", loan.CurrentBalance.String())
		assert.Equal(t, ledger.Date(2025, time.February, 3), *loan.NextPaymentDate)
	})

	t.Run("later installment before the overdue one", func(t *testing.T) {
		repo := newSeedRepo()
		r := New(repo, nil, discard())
		pending, err := r.Pending(ctx, ledger.Date(2025, time.January, 25))
		require.NoError(t, err)

		_, err = r.Confirm(ctx, findPending(t, pending, "loan:1:2025-01-22"), Upload{})
		assert.ErrorIs(t, err, ledger.ErrInstallmentMismatch)

		loan, err := repo.GetLoan(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, loan.PaidInstallments)
	})

	t.Run("service charge recorded in local state", func(t *testing.T) {
		repo := newSeedRepo()
		state, err := repository.OpenLocalState(filepath.Join(t.TempDir(), "state.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = state.Close() })

		pending, err := New(repo, state, discard()).Pending(ctx, asOf)
		require.NoError(t, err)
		o := findPending(t, pending, "service:spotify:2025-02-03")

		_, err = New(repo, state, discard()).Confirm(ctx, o, Upload{})
		require.NoError(t, err)

		// a fresh reconciler still sees the charge as paid
		_, err = New(repo, state, discard()).Confirm(ctx, o, Upload{})
		assert.ErrorIs(t, err, ErrAlreadySettled)

		svc, err := repo.GetService(ctx, "spotify")
		require.NoError(t, err)
		assert.Len(t, svc.PaymentHistory, 3)
	})
}

func TestReconciler_ConfirmErrors(t *testing.T) {
	ctx := testContext(t)
	r := New(newSeedRepo(), nil, discard())
	due := ledger.Date(2025, time.January, 3)

	tests := []struct {
		name    string
		o       ledger.PendingObligation
		wantErr error
	}{
		{
			name:    "unknown kind",
			o:       ledger.PendingObligation{Source: ledger.ObligationSource{Kind: "card", ID: "1"}, DueDate: due, Amount: money.NewFromFloat(10, money.UYU)},
			wantErr: ErrUnknownSource,
		},
		{
			name:    "settled loan",
			o:       ledger.PendingObligation{Source: ledger.ObligationSource{Kind: ledger.ObligationLoan, ID: "5"}, DueDate: due, Amount: money.NewFromFloat(4831.57, money.UYU)},
			wantErr: ledger.ErrLoanSettled,
		},
		{
			name:    "missing service",
			o:       ledger.PendingObligation{Source: ledger.ObligationSource{Kind: ledger.ObligationService, ID: "netflix"}, DueDate: due, Amount: money.NewFromFloat(10, money.UYU)},
			wantErr: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Confirm(ctx, tt.o, Upload{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := r.Confirm(ctx, ledger.PendingObligation{Source: ledger.ObligationSource{Kind: ledger.ObligationLoan, ID: "three"}}, Upload{})
	assert.Error(t, err)
}

func TestReconciler_ConfirmSurvivesRecorderFailure(t *testing.T) {
	ctx := testContext(t)
	repo := newSeedRepo()
	r := New(repo, failingRecorder{}, discard())

	o := obligation("2", "BROU Viaje Argentina", 1411.58, ledger.Date(2025, time.January, 1), true)
	recorded, err := r.Confirm(ctx, o, Upload{PaidOn: ledger.Date(2025, time.January, 5)})
	require.NoError(t, err)
	assert.Empty(t, recorded.ID)

	loan, err := repo.GetLoan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, ledger.PaymentLate, loan.PaymentHistory[len(loan.PaymentHistory)-1].Status)
}

func TestExchangeRate(t *testing.T) {
	assert.Equal(t, "46.65", ExchangeRate(money.NewFromFloat(933, money.UYU), money.NewFromFloat(20, money.USD)).StringFixed(2))
	assert.True(t, ExchangeRate(money.NewFromFloat(933, money.UYU), money.Zero(money.USD)).IsZero())
}
