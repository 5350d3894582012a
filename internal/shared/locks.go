package shared

import (
	"fmt"
	"sync"
)

// ReconLockKey builds redis keys for per-contract reconciliation sections.
func ReconLockKey(contractID int64) string {
	return fmt.Sprintf("recon:contract:%d:lock", contractID)
}

// ContractLocks serializes reconciliation per contract within the process.
// Reconciliation recomputes totals from the ledger, so serialization is a
// correctness belt against interleaved writes, not against double counting.
type ContractLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewContractLocks constructs the lock table.
func NewContractLocks() *ContractLocks {
	return &ContractLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for a contract, creating it on first use.
func (c *ContractLocks) Lock(contractID int64) func() {
	c.mu.Lock()
	m, ok := c.locks[contractID]
	if !ok {
		m = &sync.Mutex{}
		c.locks[contractID] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}
