package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

func docRows(t *testing.T, docs ...any) *pgxmock.Rows {
	t.Helper()
	rows := pgxmock.NewRows([]string{"data"})
	for _, d := range docs {
		payload, err := json.Marshal(d)
		require.NoError(t, err)
		rows.AddRow(payload)
	}
	return rows
}

func TestPostgresRepository_ListLoans(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	seed := ledger.Seed()
	mock.ExpectQuery(`SELECT data FROM loans ORDER BY id`).
		WillReturnRows(docRows(t, seed.Loans[0], seed.Loans[2]))

	repo := NewPostgresRepository(mock)
	loans, err := repo.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "BROU Dentista", loans[1].Name)
	assert.Equal(t, "14250.83", loans[1].CurrentBalance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetService_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT data FROM services WHERE id = \$1`).
		WithArgs("netflix").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	_, err = repo.GetService(context.Background(), "netflix")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_AppendLoanPayment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	loan := ledger.Seed().Loans[2]
	paidOn := ledger.Date(2025, time.January, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT data FROM loans WHERE id = \$1 FOR UPDATE`).
		WithArgs(3).
		WillReturnRows(docRows(t, loan))
	mock.ExpectExec(`UPDATE loans SET data`).
		WithArgs(3, pgxmock.AnyArg(), "active", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(pgxmock.AnyArg(), "loan", "3", paidOn, int64(191639), "UYU", "debit_2477", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(mock)
	updated, err := repo.AppendLoanPayment(context.Background(), 3, ledger.Payment{
		Date:   paidOn,
		Amount: money.NewFromFloat(1916.39, money.UYU),
		Method: "debit_2477",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.PaidInstallments)
	assert.NotEmpty(t, updated.PaymentHistory[3].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_AppendLoanPayment_RollsBack(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "missing loan",
			prepare: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FOR UPDATE`).WithArgs(3).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "settled loan",
			prepare: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"data"})
				payload, _ := json.Marshal(ledger.Seed().Loans[4])
				mock.ExpectQuery(`FOR UPDATE`).WithArgs(3).WillReturnRows(rows.AddRow(payload))
			},
			wantErr: ledger.ErrLoanSettled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectBegin()
			tt.prepare(mock)
			mock.ExpectRollback()

			repo := NewPostgresRepository(mock)
			_, err = repo.AppendLoanPayment(context.Background(), 3, ledger.Payment{
				Date:   ledger.Date(2025, time.January, 3),
				Amount: money.NewFromFloat(1916.39, money.UYU),
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepository_AppendServicePayment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := ledger.Seed().Services[1]
	paidOn := ledger.Date(2025, time.January, 10)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT data FROM services WHERE id = \$1 FOR UPDATE`).
		WithArgs("chatgpt").
		WillReturnRows(docRows(t, svc))
	mock.ExpectExec(`UPDATE services SET data`).
		WithArgs("chatgpt", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(pgxmock.AnyArg(), "service", "chatgpt", paidOn, int64(2000), "USD", "debit_2477", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPostgresRepository(mock)
	updated, err := repo.AppendServicePayment(context.Background(), "chatgpt", ledger.Payment{
		Date:   paidOn,
		Amount: money.NewFromFloat(20, money.USD),
		Method: "debit_2477",
	})
	require.NoError(t, err)
	assert.Len(t, updated.PaymentHistory, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
