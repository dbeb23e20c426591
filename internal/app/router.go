package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/freelanceflow/freelanceflow/internal/auth"
	"github.com/freelanceflow/freelanceflow/internal/clients"
	"github.com/freelanceflow/freelanceflow/internal/dashboard"
	"github.com/freelanceflow/freelanceflow/internal/invoices"
	"github.com/freelanceflow/freelanceflow/internal/shared"
	"github.com/freelanceflow/freelanceflow/jobs"
	"github.com/freelanceflow/freelanceflow/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler      *auth.Handler
	ClientHandler    *clients.Handler
	InvoiceHandler   *invoices.Handler
	DashboardHandler *dashboard.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with FreelanceFlow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)

			r.Route("/clients", func(r chi.Router) {
				params.ClientHandler.MountRoutes(r)
			})
			r.Route("/invoices", func(r chi.Router) {
				params.InvoiceHandler.MountRoutes(r)
				if params.ReportHandler != nil {
					params.ReportHandler.MountRoutes(r)
				}
			})
			r.Route("/analytics", func(r chi.Router) {
				params.DashboardHandler.MountRoutes(r)
			})
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
