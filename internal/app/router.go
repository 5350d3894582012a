package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	debthttp "github.com/chaiyo-erp/chaiyo-erp/internal/debt/http"
	"github.com/chaiyo-erp/chaiyo-erp/internal/observability"
	reconhttp "github.com/chaiyo-erp/chaiyo-erp/internal/recon/http"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
	"github.com/chaiyo-erp/chaiyo-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	DebtHandler  *debthttp.Handler
	ReconHandler *reconhttp.Handler
	JobHandler   *jobs.Handler
	ExportGuard  *shared.APIKeyGuard
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.DebtHandler != nil {
		params.DebtHandler.MountRoutes(r, params.ExportGuard)
	}
	if params.ReconHandler != nil {
		params.ReconHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
