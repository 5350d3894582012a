package debthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

// MountRoutes registers the debt reporting endpoints onto the router. The CSV
// export is rate limited and guarded by the reporting API key because it
// scans both populations in full.
func (h *Handler) MountRoutes(r chi.Router, exportGuard *shared.APIKeyGuard) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Route("/api/debts", func(dr chi.Router) {
		dr.Get("/", h.handleList)
		dr.Get("/aging", h.handleAging)
		dr.Get("/statistics", h.handleStatistics)
		dr.Get("/criteria", h.handleGetCriteria)
		dr.Put("/criteria", h.handlePutCriteria)
		dr.Group(func(gr chi.Router) {
			gr.Use(limiter)
			if exportGuard != nil {
				gr.Use(exportGuard.Middleware)
			}
			gr.Get("/export.csv", h.handleExportCSV)
		})
	})
}
