package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/chaiyo-erp/chaiyo-erp/internal/recon"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

const defaultDrainLimit = 100

// ReconHandlers adapts the reconciliation service to asynq tasks.
type ReconHandlers struct {
	service *recon.Service
	logger  *slog.Logger
}

// NewReconHandlers constructs the task handlers.
func NewReconHandlers(service *recon.Service, logger *slog.Logger) *ReconHandlers {
	return &ReconHandlers{service: service, logger: logger}
}

// HandleReconcile processes TaskReconcileContract tasks. A vanished contract
// is dropped rather than retried.
func (h *ReconHandlers) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	result, err := h.service.Reconcile(ctx, payload.ContractID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("reconcile task dropped, contract missing", "contractId", payload.ContractID)
			return asynq.SkipRetry
		}
		return err
	}
	h.logger.Info("reconcile task done",
		"contractId", result.ContractID, "outcome", result.Outcome, "mirrorSynced", result.MirrorSynced)
	return nil
}

// HandleDrainOutbox processes TaskDrainOutbox tasks.
func (h *ReconHandlers) HandleDrainOutbox(ctx context.Context, t *asynq.Task) error {
	var payload DrainPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultDrainLimit
	}
	delivered, err := h.service.DrainOutbox(ctx, payload.Limit)
	if err != nil {
		return err
	}
	if delivered > 0 {
		h.logger.Info("outbox drained", "delivered", delivered)
	}
	return nil
}
