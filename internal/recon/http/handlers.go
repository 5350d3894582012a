package reconhttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chaiyo-erp/chaiyo-erp/internal/recon"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

const requestTimeout = 15 * time.Second

// ReconService is the reconciliation contract used by the handler.
type ReconService interface {
	Reconcile(ctx context.Context, contractID int64) (*recon.Result, error)
}

// Enqueuer schedules an asynchronous reconciliation run.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, contractID int64) error
}

// Handler serves the reconciliation trigger endpoint.
type Handler struct {
	logger   *slog.Logger
	service  ReconService
	enqueuer Enqueuer
}

// NewHandler constructs the reconciliation HTTP handler. The enqueuer is
// optional; without it every run executes inline.
func NewHandler(logger *slog.Logger, service ReconService, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

// MountRoutes registers the reconciliation endpoint onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/api/contracts/{contractID}/reconcile", h.handleReconcile)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	contractID, err := strconv.ParseInt(chi.URLParam(r, "contractID"), 10, 64)
	if err != nil || contractID <= 0 {
		shared.RespondError(w, shared.ValidationError{Field: "contractID"})
		return
	}

	// async=1 defers the run to the worker, for payment webhooks that only
	// need the write acknowledged.
	if h.enqueuer != nil && r.URL.Query().Get("async") == "1" {
		if err := h.enqueuer.EnqueueReconcile(r.Context(), contractID); err != nil {
			h.logger.Error("reconcile enqueue failed", "contractId", contractID, "error", err)
			shared.RespondError(w, err)
			return
		}
		shared.RespondJSON(w, http.StatusAccepted, map[string]any{"success": true, "queued": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Reconcile(ctx, contractID)
	if err != nil {
		h.logger.Error("reconcile failed", "contractId", contractID, "error", err)
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, result)
}
