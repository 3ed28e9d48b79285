package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements LedgerRepository using PostgreSQL.
// Entities are stored as JSONB documents with their lookup columns alongside.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new PostgreSQL ledger repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListLoans(ctx context.Context) ([]ledger.Loan, error) {
	loans, err := queryDocs[ledger.Loan](ctx, r.db, `SELECT data FROM loans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

func (r *PostgresRepository) GetLoan(ctx context.Context, id int) (*ledger.Loan, error) {
	var loan ledger.Loan
	if err := getDoc(ctx, r.db, `SELECT data FROM loans WHERE id = $1`, id, &loan); err != nil {
		return nil, fmt.Errorf("failed to get loan %d: %w", id, err)
	}
	return &loan, nil
}

func (r *PostgresRepository) ListServices(ctx context.Context) ([]ledger.Service, error) {
	services, err := queryDocs[ledger.Service](ctx, r.db, `SELECT data FROM services ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *PostgresRepository) GetService(ctx context.Context, id string) (*ledger.Service, error) {
	var svc ledger.Service
	if err := getDoc(ctx, r.db, `SELECT data FROM services WHERE id = $1`, id, &svc); err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}
	return &svc, nil
}

func (r *PostgresRepository) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	accounts, err := queryDocs[ledger.Account](ctx, r.db, `SELECT data FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresRepository) ListIncome(ctx context.Context) ([]ledger.IncomeRecord, error) {
	income, err := queryDocs[ledger.IncomeRecord](ctx, r.db, `SELECT data FROM income ORDER BY received_on, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	return income, nil
}

// AppendLoanPayment locks the loan row, applies the payment and records it in
// the payments table inside one transaction.
func (r *PostgresRepository) AppendLoanPayment(ctx context.Context, id int, p ledger.Payment) (_ *ledger.Loan, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var loan ledger.Loan
	if err = getDoc(ctx, tx, `SELECT data FROM loans WHERE id = $1 FOR UPDATE`, id, &loan); err != nil {
		return nil, fmt.Errorf("failed to lock loan %d: %w", id, err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	updated, err := loan.WithPayment(p)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode loan: %w", err)
	}
	if _, err = tx.Exec(ctx,
		`UPDATE loans SET data = $2, status = $3, next_payment_date = $4, updated_at = now() WHERE id = $1`,
		id, payload, string(updated.Status), updated.NextPaymentDate,
	); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	recorded := updated.PaymentHistory[len(updated.PaymentHistory)-1]
	if err = insertPayment(ctx, tx, ledger.ObligationLoan, strconv.Itoa(id), recorded); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit loan payment: %w", err)
	}
	return &updated, nil
}

// AppendServicePayment locks the service row and appends the payment in one transaction.
func (r *PostgresRepository) AppendServicePayment(ctx context.Context, id string, p ledger.Payment) (_ *ledger.Service, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var svc ledger.Service
	if err = getDoc(ctx, tx, `SELECT data FROM services WHERE id = $1 FOR UPDATE`, id, &svc); err != nil {
		return nil, fmt.Errorf("failed to lock service %s: %w", id, err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	updated, err := svc.WithPayment(p)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service: %w", err)
	}
	if _, err = tx.Exec(ctx, `UPDATE services SET data = $2, updated_at = now() WHERE id = $1`, id, payload); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	recorded := updated.PaymentHistory[len(updated.PaymentHistory)-1]
	if err = insertPayment(ctx, tx, ledger.ObligationService, id, recorded); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit service payment: %w", err)
	}
	return &updated, nil
}

// Seed inserts l, leaving rows that already exist untouched.
func (r *PostgresRepository) Seed(ctx context.Context, l ledger.Ledger) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, loan := range l.Loans {
		payload, _ := json.Marshal(loan)
		if _, err = tx.Exec(ctx,
			`INSERT INTO loans (id, name, account, status, next_payment_date, data) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			loan.ID, loan.Name, loan.Account, string(loan.Status), loan.NextPaymentDate, payload,
		); err != nil {
			return fmt.Errorf("failed to seed loan %d: %w", loan.ID, err)
		}
	}
	for _, svc := range l.Services {
		payload, _ := json.Marshal(svc)
		if _, err = tx.Exec(ctx,
			`INSERT INTO services (id, name, account, billing_cycle, data) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			svc.ID, svc.Name, svc.Account, string(svc.BillingCycle), payload,
		); err != nil {
			return fmt.Errorf("failed to seed service %s: %w", svc.ID, err)
		}
	}
	for _, acc := range l.Accounts {
		payload, _ := json.Marshal(acc)
		if _, err = tx.Exec(ctx, `INSERT INTO accounts (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, acc.ID, payload); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", acc.ID, err)
		}
	}

	var incomeRows int
	if err = tx.QueryRow(ctx, `SELECT count(*) FROM income`).Scan(&incomeRows); err != nil {
		return fmt.Errorf("failed to count income: %w", err)
	}
	if incomeRows == 0 {
		for _, inc := range l.Income {
			payload, _ := json.Marshal(inc)
			if _, err = tx.Exec(ctx, `INSERT INTO income (received_on, data) VALUES ($1, $2)`, inc.Date, payload); err != nil {
				return fmt.Errorf("failed to seed income: %w", err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func queryDocs[T any](ctx context.Context, q querier, query string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func getDoc(ctx context.Context, q querier, query string, id any, dst any) error {
	var data []byte
	err := q.QueryRow(ctx, query, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

func insertPayment(ctx context.Context, q querier, kind ledger.ObligationKind, sourceID string, p ledger.Payment) error {
	var installment *int
	if p.InstallmentNumber > 0 {
		installment = &p.InstallmentNumber
	}
	_, err := q.Exec(ctx,
		`INSERT INTO payments (id, source_kind, source_id, paid_on, amount_minor, currency, method, installment_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, string(kind), sourceID, p.Date, p.Amount.Amount(), p.Amount.Currency(), string(p.Method), installment,
	)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}
