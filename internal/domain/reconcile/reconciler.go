package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/extractor"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	loansvc "github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	subsvc "github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

var (
	// ErrUnknownSource is returned when confirming an obligation of an unknown kind.
	ErrUnknownSource = errors.New("unknown obligation source")
	// ErrAlreadySettled is returned when confirming an obligation that is no longer pending.
	ErrAlreadySettled = errors.New("obligation already settled")
)

// PaymentRecorder persists confirmed payments outside the ledger.
type PaymentRecorder interface {
	SavePayment(ctx context.Context, p repository.RecordedPayment) (repository.RecordedPayment, error)
	Payments(ctx context.Context) ([]repository.RecordedPayment, error)
}

// Upload describes the document a confirmation comes from.
type Upload struct {
	DocumentID string
	// PaidOn defaults to the confirmation time when zero.
	PaidOn  time.Time
	Details string
}

// Reconciler matches documents against the ledger's pending obligations and
// records confirmed payments.
type Reconciler struct {
	repo     repository.LedgerRepository
	recorder PaymentRecorder
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes confirmations; confirmed holds the keys settled by this process.
	mu        sync.Mutex
	confirmed map[string]struct{}
}

// New creates a reconciler. recorder may be nil.
func New(repo repository.LedgerRepository, recorder PaymentRecorder, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
		confirmed: make(map[string]struct{}),
	}
}

// Pending returns loan and service obligations as of asOf, ordered by due date.
func (r *Reconciler) Pending(ctx context.Context, asOf time.Time) ([]ledger.PendingObligation, error) {
	asOf = ledger.AsOfOrToday(asOf)

	loans, err := r.repo.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	services, err := r.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	pending := loansvc.PendingObligations(loans, asOf)
	pending = append(pending, subsvc.PendingObligations(services, asOf)...)
	sortByDueDate(pending)
	return pending, nil
}

// Match finds the obligation a document pays as of asOf. Suggestions are
// returned when nothing matched.
func (r *Reconciler) Match(ctx context.Context, text string, fields *extractor.Fields, asOf time.Time) (*ledger.PendingObligation, []Suggestion, error) {
	pending, err := r.Pending(ctx, asOf)
	if err != nil {
		return nil, nil, err
	}

	if match := MatchUpload(text, fields, pending); match != nil {
		r.logger.Info("document matched obligation",
			slog.String("obligation", match.Key()),
			slog.String("name", match.Source.Name),
		)
		return match, nil, nil
	}

	suggestions := Suggest(text, pending, 3)
	r.logger.Info("document left unmatched", slog.Int("suggestions", len(suggestions)))
	return nil, suggestions, nil
}

// Confirm records the payment of o through the repository and, when a
// recorder is configured, in local state. o must still be pending: an
// obligation that was already confirmed returns ErrAlreadySettled.
func (r *Reconciler) Confirm(ctx context.Context, o ledger.PendingObligation, u Upload) (*repository.RecordedPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.stillPending(ctx, o)
	if err != nil {
		return nil, err
	}

	paidOn := u.PaidOn
	if paidOn.IsZero() {
		paidOn = r.now()
	}
	paidOn = ledger.DateOf(paidOn)

	var payment ledger.Payment
	switch o.Source.Kind {
	case ledger.ObligationLoan:
		id, err := strconv.Atoi(o.Source.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid loan id %q: %w", o.Source.ID, err)
		}
		loan, err := r.repo.AppendLoanPayment(ctx, id, ledger.Payment{
			Date:              paidOn,
			Amount:            o.Amount,
			Status:            paymentStatus(o),
			Method:            ledger.MethodUpload,
			InstallmentNumber: current.InstallmentNumber,
			Details:           u.Details,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to append loan payment: %w", err)
		}
		payment = loan.PaymentHistory[len(loan.PaymentHistory)-1]

	case ledger.ObligationService:
		p := ledger.Payment{
			Date:    paidOn,
			Amount:  o.Amount,
			Status:  ledger.PaymentPaid,
			Method:  ledger.MethodUpload,
			Details: u.Details,
		}
		if o.ForeignAmount != nil {
			p.Amount = o.ForeignAmount
			p.UYUAmount = o.Amount
			p.ExchangeRate = ExchangeRate(o.Amount, o.ForeignAmount).InexactFloat64()
		}
		svc, err := r.repo.AppendServicePayment(ctx, o.Source.ID, p)
		if err != nil {
			return nil, fmt.Errorf("failed to append service payment: %w", err)
		}
		payment = svc.PaymentHistory[len(svc.PaymentHistory)-1]

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, o.Source.Kind)
	}

	r.confirmed[o.Key()] = struct{}{}

	due := o.DueDate
	recorded := repository.RecordedPayment{
		Payment:    payment,
		Source:     o.Source,
		DueDate:    &due,
		DocumentID: u.DocumentID,
		RecordedAt: r.now(),
	}
	if r.recorder != nil {
		saved, err := r.recorder.SavePayment(ctx, recorded)
		if err != nil {
			// the ledger append already committed
			r.logger.Error("failed to save payment to local state",
				slog.String("obligation", o.Key()),
				slog.Any("error", err),
			)
		} else {
			recorded = saved
		}
	}

	r.logger.Info("payment confirmed",
		slog.String("obligation", o.Key()),
		slog.String("amount", payment.Amount.String()),
		slog.String("document_id", u.DocumentID),
	)
	return &recorded, nil
}

// stillPending re-reads the ledger and returns the current version of o.
// Loans are checked against the projection as of the due date, services
// against the payments confirmed so far, since their schedule does not move.
func (r *Reconciler) stillPending(ctx context.Context, o ledger.PendingObligation) (ledger.PendingObligation, error) {
	key := o.Key()

	switch o.Source.Kind {
	case ledger.ObligationLoan:
		id, err := strconv.Atoi(o.Source.ID)
		if err != nil {
			return o, fmt.Errorf("invalid loan id %q: %w", o.Source.ID, err)
		}
		loan, err := r.repo.GetLoan(ctx, id)
		if err != nil {
			return o, fmt.Errorf("failed to load loan: %w", err)
		}
		if !loan.IsActive() {
			return o, ledger.ErrLoanSettled
		}
		for _, p := range loansvc.PendingObligations([]ledger.Loan{*loan}, o.DueDate) {
			if p.Key() == key {
				return p, nil
			}
		}
		return o, fmt.Errorf("%w: %s", ErrAlreadySettled, key)

	case ledger.ObligationService:
		if _, err := r.repo.GetService(ctx, o.Source.ID); err != nil {
			return o, fmt.Errorf("failed to load service: %w", err)
		}
		if _, ok := r.confirmed[key]; ok {
			return o, fmt.Errorf("%w: %s", ErrAlreadySettled, key)
		}
		if r.recorder != nil {
			recorded, err := r.recorder.Payments(ctx)
			if err != nil {
				return o, fmt.Errorf("failed to load recorded payments: %w", err)
			}
			for _, p := range recorded {
				if p.ObligationKey() == key {
					return o, fmt.Errorf("%w: %s", ErrAlreadySettled, key)
				}
			}
		}
		return o, nil

	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownSource, o.Source.Kind)
	}
}

func paymentStatus(o ledger.PendingObligation) ledger.PaymentStatus {
	if o.IsOverdue {
		return ledger.PaymentLate
	}
	return ledger.PaymentPaid
}

func sortByDueDate(pending []ledger.PendingObligation) {
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].DueDate.Before(pending[j].DueDate)
	})
}

// ExchangeRate returns the pesos-per-unit rate implied by two amounts.
func ExchangeRate(uyu, foreign *money.Money) decimal.Decimal {
	if foreign.IsZero() {
		return decimal.Zero
	}
	return uyu.ToDecimal().Div(foreign.ToDecimal()).Round(2)
}
