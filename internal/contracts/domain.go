package contracts

import (
	"time"
)

// ContractStatus enumerates installment contract statuses.
type ContractStatus string

const (
	StatusPending   ContractStatus = "pending"
	StatusApproved  ContractStatus = "approved"
	StatusActive    ContractStatus = "active"
	StatusOngoing   ContractStatus = "ongoing"
	StatusCompleted ContractStatus = "completed"
	StatusCancelled ContractStatus = "cancelled"
	StatusBadDebt   ContractStatus = "bad_debt"
	StatusRejected  ContractStatus = "rejected"
)

// Contract is an installment sale contract. paidAmount is a denormalized
// total; the payment ledger is authoritative and reconciliation restores the
// invariant sum(confirmed payments) == paidAmount.
type Contract struct {
	ID               int64
	ContractNo       string
	CustomerID       int64
	TotalAmount      float64
	PaidAmount       float64
	MonthlyPayment   float64
	InstallmentCount int
	DueDate          *time.Time
	NextDueDate      *time.Time
	Status           ContractStatus
	BranchCode       string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// RemainingAmount is the unpaid balance, floored at zero because legacy data
// occasionally carries paidAmount > totalAmount.
func (c Contract) RemainingAmount() float64 {
	remaining := c.TotalAmount - c.PaidAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PaymentStatus enumerates ledger entry statuses.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is one ledger entry against a contract.
type Payment struct {
	ID          int64
	ContractID  int64
	Amount      float64
	PaymentDate time.Time
	Method      string
	Status      PaymentStatus
	CreatedAt   time.Time
}

// ReconciledState carries the ledger-derived values persisted back onto a
// contract by reconciliation.
type ReconciledState struct {
	PaidAmount  float64
	Status      ContractStatus
	NextDueDate *time.Time
	CompletedAt *time.Time
}
