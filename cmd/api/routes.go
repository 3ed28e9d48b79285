package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/finance-dashboard/pkg/httputil"
	"github.com/FACorreiaa/finance-dashboard/pkg/middleware"
)

// NewRouter builds the HTTP API. Every domain route lives under /api/v1.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Config.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(float64(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		d.LoansHandler.Routes(r)
		d.SubscriptionsHandler.Routes(r)
		d.ImportHandler.Routes(r)
		d.ReportHandler.Routes(r)
	})

	if d.Config.Observability.MetricsEnabled && d.Config.Observability.MetricsPort == 0 {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	return r
}
