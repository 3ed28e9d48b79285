// Package handler exposes loan projections over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/loans/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/httputil"
)

// LoansHandler serves the /loans routes.
type LoansHandler struct {
	svc    *service.Service
	asOf   time.Time
	logger *slog.Logger
}

// NewLoansHandler creates a loans handler. asOf is the default reference
// date; zero means today.
func NewLoansHandler(svc *service.Service, asOf time.Time, logger *slog.Logger) *LoansHandler {
	return &LoansHandler{svc: svc, asOf: asOf, logger: logger}
}

// Routes mounts the handler on r.
func (h *LoansHandler) Routes(r chi.Router) {
	r.Get("/loans", h.ListLoans)
	r.Get("/loans/overdue", h.Overdue)
	r.Get("/loans/{id}/projection", h.Projection)
}

// ListLoans returns every loan with its overdue flag.
func (h *LoansHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	loans, err := h.svc.ListLoans(r.Context(), asOf)
	if err != nil {
		h.logger.Error("failed to list loans", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list loans", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

// Overdue returns the overdue loans with their late fees.
func (h *LoansHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	overdue, err := h.svc.Overdue(r.Context(), asOf)
	if err != nil {
		h.logger.Error("failed to list overdue loans", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list overdue loans", err)
		return
	}
	if overdue == nil {
		overdue = []service.OverdueLoan{}
	}
	httputil.WriteJSON(w, http.StatusOK, overdue)
}

// Projection returns the remaining schedule of one loan.
func (h *LoansHandler) Projection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid loan id", err)
		return
	}
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	p, err := h.svc.Projection(r.Context(), id, asOf)
	if errors.Is(err, repository.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "loan not found", nil)
		return
	}
	if err != nil {
		h.logger.Error("failed to project loan", slog.Int("loan_id", id), slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to project loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
