// Package handler exposes ledger-wide summaries and exports over HTTP.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/report"
	"github.com/FACorreiaa/finance-dashboard/pkg/httputil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PendingLister lists the obligations pending as of a date.
type PendingLister interface {
	Pending(ctx context.Context, asOf time.Time) ([]ledger.PendingObligation, error)
}

// PaymentLister lists the payments confirmed from uploads.
type PaymentLister interface {
	Payments(ctx context.Context) ([]repository.RecordedPayment, error)
}

// ReportHandler serves accounts, pending, validation, payments and report routes.
type ReportHandler struct {
	repo     repository.LedgerRepository
	pending  PendingLister
	payments PaymentLister // optional
	asOf     time.Time
	logger   *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(repo repository.LedgerRepository, pending PendingLister, asOf time.Time, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{repo: repo, pending: pending, asOf: asOf, logger: logger}
}

// WithPayments serves GET /payments/recorded from p.
func (h *ReportHandler) WithPayments(p PaymentLister) *ReportHandler {
	h.payments = p
	return h
}

// Routes mounts the handler on r.
func (h *ReportHandler) Routes(r chi.Router) {
	r.Get("/accounts", h.Accounts)
	r.Get("/pending", h.Pending)
	r.Get("/validation", h.Validation)
	r.Get("/payments/monthly", h.Monthly)
	r.Get("/payments/recorded", h.Recorded)
	r.Get("/reports/payments.csv", h.PaymentsCSV)
	r.Get("/reports/summary.xlsx", h.SummaryXLSX)
}

// ValidationResponse is the body of GET /validation.
type ValidationResponse struct {
	Valid    bool             `json:"valid"`
	Warnings []ledger.Warning `json:"warnings"`
}

// Accounts lists the accounts obligations are debited from.
func (h *ReportHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, "failed to list accounts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}

// Pending groups the pending obligations by account.
func (h *ReportHandler) Pending(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pending, err := h.pending.Pending(r.Context(), asOf)
	if err != nil {
		h.fail(w, "failed to list pending obligations", err)
		return
	}
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, "failed to list accounts", err)
		return
	}
	summary := report.GroupPendingByAccount(pending, accounts)
	if summary.Accounts == nil {
		summary.Accounts = []report.AccountPending{}
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Validation reports every consistency warning in the ledger.
func (h *ReportHandler) Validation(w http.ResponseWriter, r *http.Request) {
	l, err := repository.Snapshot(r.Context(), h.repo)
	if err != nil {
		h.fail(w, "failed to read ledger", err)
		return
	}
	warnings := ledger.ValidateLedger(l)
	if warnings == nil {
		warnings = []ledger.Warning{}
	}
	httputil.WriteJSON(w, http.StatusOK, ValidationResponse{Valid: len(warnings) == 0, Warnings: warnings})
}

// Monthly groups the payment history by month.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	l, err := repository.Snapshot(r.Context(), h.repo)
	if err != nil {
		h.fail(w, "failed to read ledger", err)
		return
	}
	groups := report.GroupByMonth(l.Loans, l.Services)
	if groups == nil {
		groups = []report.MonthGroup{}
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

// Recorded lists the payments confirmed from uploads.
func (h *ReportHandler) Recorded(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		httputil.WriteJSON(w, http.StatusOK, []repository.RecordedPayment{})
		return
	}
	payments, err := h.payments.Payments(r.Context())
	if err != nil {
		h.fail(w, "failed to list recorded payments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}

// PaymentsCSV downloads the payment history as CSV.
func (h *ReportHandler) PaymentsCSV(w http.ResponseWriter, r *http.Request) {
	l, err := repository.Snapshot(r.Context(), h.repo)
	if err != nil {
		h.fail(w, "failed to read ledger", err)
		return
	}
	var buf bytes.Buffer
	if err := report.WritePaymentsCSV(&buf, l.Loans, l.Services); err != nil {
		h.fail(w, "failed to export payments", err)
		return
	}
	h.attachment(w, "text/csv; charset=utf-8", "payments.csv", buf.Bytes())
}

// SummaryXLSX downloads the dashboard summary workbook.
func (h *ReportHandler) SummaryXLSX(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	l, err := repository.Snapshot(r.Context(), h.repo)
	if err != nil {
		h.fail(w, "failed to read ledger", err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteSummaryXLSX(&buf, l, asOf); err != nil {
		h.fail(w, "failed to export summary", err)
		return
	}
	h.attachment(w, xlsxContentType, fmt.Sprintf("resumen-%s.xlsx", asOf.Format(time.DateOnly)), buf.Bytes())
}

func (h *ReportHandler) attachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write attachment", slog.String("file", name), slog.Any("error", err))
	}
}

func (h *ReportHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httputil.WriteError(w, http.StatusInternalServerError, msg, err)
}
