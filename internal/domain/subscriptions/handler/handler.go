// Package handler exposes recurring services over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/httputil"
	"github.com/FACorreiaa/finance-dashboard/pkg/money"
)

// SubscriptionsHandler serves the /services routes.
type SubscriptionsHandler struct {
	svc    *service.Service
	asOf   time.Time
	logger *slog.Logger
}

// NewSubscriptionsHandler constructs a new handler. asOf is the default
// reference date; zero means today.
func NewSubscriptionsHandler(svc *service.Service, asOf time.Time, logger *slog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{svc: svc, asOf: asOf, logger: logger}
}

// Routes mounts the handler on r.
func (h *SubscriptionsHandler) Routes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Get("/services/upcoming", h.Upcoming)
	r.Get("/services/monthly-total", h.MonthlyTotal)
	r.Get("/services/contracts", h.Contracts)
}

// MonthlyTotalResponse is the body of GET /services/monthly-total.
type MonthlyTotalResponse struct {
	Total   *money.Money `json:"total"`
	Display string       `json:"display"`
}

// ListServices returns every service.
func (h *SubscriptionsHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.ListServices(r.Context())
	if err != nil {
		h.fail(w, "failed to list services", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, services)
}

// Upcoming returns the next charge of every service, soonest first.
func (h *SubscriptionsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	upcoming, err := h.svc.Upcoming(r.Context(), asOf)
	if err != nil {
		h.fail(w, "failed to list upcoming payments", err)
		return
	}
	if upcoming == nil {
		upcoming = []service.UpcomingPayment{}
	}
	httputil.WriteJSON(w, http.StatusOK, upcoming)
}

// MonthlyTotal returns the monthly cost of every service in pesos.
func (h *SubscriptionsHandler) MonthlyTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.MonthlyTotal(r.Context())
	if err != nil {
		h.fail(w, "failed to compute monthly total", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MonthlyTotalResponse{Total: total, Display: total.Display()})
}

// Contracts returns the progress of every contract.
func (h *SubscriptionsHandler) Contracts(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	contracts, err := h.svc.Contracts(r.Context(), asOf)
	if err != nil {
		h.fail(w, "failed to list contracts", err)
		return
	}
	if contracts == nil {
		contracts = []service.ContractStatus{}
	}
	httputil.WriteJSON(w, http.StatusOK, contracts)
}

func (h *SubscriptionsHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httputil.WriteError(w, http.StatusInternalServerError, msg, err)
}
