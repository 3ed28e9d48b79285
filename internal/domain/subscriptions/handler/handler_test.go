package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/subscriptions/service"
	"github.com/FACorreiaa/finance-dashboard/pkg/logging"
)

type brokenRepo struct {
	repository.LedgerRepository
}

func (brokenRepo) ListServices(context.Context) ([]ledger.Service, error) {
	return nil, errors.New("connection refused")
}

func newRouter(repo repository.LedgerRepository) http.Handler {
	h := NewSubscriptionsHandler(service.NewService(repo, logging.Discard()), ledger.Date(2025, time.January, 1), logging.Discard())
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestUpcoming(t *testing.T) {
	rec := get(t, newRouter(repository.NewSeededRepository()), "/services/upcoming")
	require.Equal(t, http.StatusOK, rec.Code)

	var upcoming []struct {
		Service   ledger.ObligationSource `json:"service"`
		DaysUntil int                     `json:"days_until"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upcoming))
	require.NotEmpty(t, upcoming)
	assert.Equal(t, "spotify", upcoming[0].Service.ID)
	assert.Equal(t, 2, upcoming[0].DaysUntil)
}

func TestMonthlyTotal(t *testing.T) {
	rec := get(t, newRouter(repository.NewSeededRepository()), "/services/monthly-total")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Display string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "$ 2.968,68", body.Display)
}

func TestContracts(t *testing.T) {
	r := newRouter(repository.NewSeededRepository())

	rec := get(t, r, "/services/contracts?as_of=2025-11-15")
	require.Equal(t, http.StatusOK, rec.Code)

	var contracts []service.ContractStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contracts))
	require.Len(t, contracts, 2)
	assert.Equal(t, "google-one", contracts[0].Service.ID)
	assert.True(t, contracts[0].IsExpiringSoon)
	assert.False(t, contracts[1].IsExpiringSoon)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/services/contracts?as_of=15-11-2025").Code)
}

func TestRepositoryFailure(t *testing.T) {
	r := newRouter(brokenRepo{})

	for _, path := range []string{"/services", "/services/upcoming", "/services/monthly-total", "/services/contracts"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusInternalServerError, get(t, r, path).Code)
		})
	}
}
