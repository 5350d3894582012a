package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileContract recomputes one contract from its ledger.
	TaskReconcileContract = "recon:contract"
	// TaskDrainOutbox retries undelivered legacy mirror writes.
	TaskDrainOutbox = "recon:outbox"
)

// ReconcilePayload identifies the contract to reconcile.
type ReconcilePayload struct {
	ContractID int64 `json:"contractId"`
}

// NewReconcileTask constructs a contract reconciliation task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileContract, data), nil
}

// DrainPayload bounds one outbox drain pass.
type DrainPayload struct {
	Limit int `json:"limit"`
}

// NewDrainOutboxTask constructs an outbox drain task.
func NewDrainOutboxTask(payload DrainPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDrainOutbox, data), nil
}
