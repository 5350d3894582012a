package recon

import (
	"time"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
)

// Outcome describes what a reconciliation run did to the contract.
type Outcome string

const (
	// OutcomeUnchanged means the ledger already matched the stored state.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeUpdated means totals or status were rewritten.
	OutcomeUpdated Outcome = "updated"
	// OutcomeCompleted means the run transitioned the contract to completed.
	OutcomeCompleted Outcome = "completed"
)

// Result reports one reconciliation run.
type Result struct {
	ContractID   int64                    `json:"contractId"`
	ContractNo   string                   `json:"contractNo"`
	TotalPaid    float64                  `json:"totalPaid"`
	Remaining    float64                  `json:"remaining"`
	Status       contracts.ContractStatus `json:"status"`
	NextDueDate  *time.Time               `json:"nextDueDate,omitempty"`
	CompletedAt  *time.Time               `json:"completedAt,omitempty"`
	Outcome      Outcome                  `json:"outcome"`
	MirrorSynced bool                     `json:"mirrorSynced"`
}

// Event is one outbox row carrying reconciled state toward the legacy
// mirror. Events are deduplicated by ID and retried until delivered.
type Event struct {
	ID          string
	ContractID  int64
	ContractNo  string
	PaidAmount  float64
	Status      contracts.ContractStatus
	NextDueDate *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
}
