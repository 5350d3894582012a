package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

// ContractStore is the primary contract persistence the sync reads and
// writes.
type ContractStore interface {
	GetContract(ctx context.Context, id int64) (*contracts.Contract, error)
	ListPayments(ctx context.Context, contractID int64) ([]contracts.Payment, error)
	UpdateReconciledState(ctx context.Context, id int64, state contracts.ReconciledState) error
}

// Mirror is the best-effort legacy sink.
type Mirror interface {
	Apply(ctx context.Context, contractNo string, state contracts.ReconciledState) (bool, error)
}

// EventStore is the retry queue for mirror writes.
type EventStore interface {
	Insert(ctx context.Context, e Event) error
	MarkDelivered(ctx context.Context, id string) error
	ListUndelivered(ctx context.Context, limit int) ([]Event, error)
}

// Observer records reconciliation outcomes.
type Observer interface {
	ObserveReconRun(outcome string)
	ObserveMirrorFailure()
}

// Invalidator drops cached reports after a state change.
type Invalidator interface {
	InvalidateReports(ctx context.Context) error
}

// Service recomputes a contract's canonical paid state from its confirmed
// payment ledger. The ledger is the source of truth; the stored paidAmount
// is a derived value this service restores.
type Service struct {
	store       ContractStore
	mirror      Mirror
	events      EventStore
	locks       *shared.ContractLocks
	logger      *slog.Logger
	observer    Observer
	invalidator Invalidator

	now func() time.Time
}

// NewService wires the reconciliation sync.
func NewService(store ContractStore, mirror Mirror, events EventStore, locks *shared.ContractLocks, logger *slog.Logger, observer Observer, invalidator Invalidator) *Service {
	return &Service{
		store:       store,
		mirror:      mirror,
		events:      events,
		locks:       locks,
		logger:      logger,
		observer:    observer,
		invalidator: invalidator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile recomputes one contract from its full ledger and persists the
// result. Runs are serialized per contract and idempotent: an unchanged
// ledger produces an identical contract and no write.
func (s *Service) Reconcile(ctx context.Context, contractID int64) (*Result, error) {
	unlock := s.locks.Lock(contractID)
	defer unlock()

	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("recon: load contract %d: %w", contractID, err)
	}
	payments, err := s.store.ListPayments(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("recon: load ledger %d: %w", contractID, err)
	}

	state := deriveState(contract, payments, s.now())
	result := &Result{
		ContractID:  contract.ID,
		ContractNo:  contract.ContractNo,
		TotalPaid:   state.PaidAmount,
		Remaining:   remainingOf(contract.TotalAmount, state.PaidAmount),
		Status:      state.Status,
		NextDueDate: state.NextDueDate,
		CompletedAt: state.CompletedAt,
	}

	if stateUnchanged(contract, state) {
		result.Outcome = OutcomeUnchanged
		result.MirrorSynced = true
		s.observe(string(OutcomeUnchanged))
		return result, nil
	}

	if err := s.store.UpdateReconciledState(ctx, contract.ID, state); err != nil {
		return nil, fmt.Errorf("recon: persist contract %d: %w", contractID, err)
	}
	result.Outcome = OutcomeUpdated
	if state.Status == contracts.StatusCompleted && contract.Status != contracts.StatusCompleted {
		result.Outcome = OutcomeCompleted
	}
	s.observe(string(result.Outcome))

	event := Event{
		ID:          uuid.NewString(),
		ContractID:  contract.ID,
		ContractNo:  contract.ContractNo,
		PaidAmount:  state.PaidAmount,
		Status:      state.Status,
		NextDueDate: state.NextDueDate,
		CompletedAt: state.CompletedAt,
		CreatedAt:   s.now(),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Warn("outbox insert failed", "contractId", contract.ID, "error", err)
	}

	// The mirror write is best effort and never rolls back the primary.
	// A failed or missing mirror leaves the event for the drain pass.
	result.MirrorSynced = s.applyMirror(ctx, event)

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateReports(ctx); err != nil {
			s.logger.Warn("report invalidation failed", "error", err)
		}
	}
	return result, nil
}

// DrainOutbox retries undelivered mirror writes. Returns the number of
// events delivered.
func (s *Service) DrainOutbox(ctx context.Context, limit int) (int, error) {
	events, err := s.events.ListUndelivered(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("recon: list outbox: %w", err)
	}
	delivered := 0
	for _, e := range events {
		if s.applyMirror(ctx, e) {
			delivered++
		}
	}
	return delivered, nil
}

func (s *Service) applyMirror(ctx context.Context, e Event) bool {
	state := contracts.ReconciledState{
		PaidAmount:  e.PaidAmount,
		Status:      e.Status,
		NextDueDate: e.NextDueDate,
		CompletedAt: e.CompletedAt,
	}
	matched, err := s.mirror.Apply(ctx, e.ContractNo, state)
	if err != nil {
		s.logger.Warn("mirror write failed", "contractNo", e.ContractNo, "error", err)
		if s.observer != nil {
			s.observer.ObserveMirrorFailure()
		}
		return false
	}
	// No mirror row is a normal condition for contracts born after the
	// legacy system was frozen.
	if err := s.events.MarkDelivered(ctx, e.ID); err != nil {
		s.logger.Warn("outbox mark failed", "eventId", e.ID, "error", err)
	}
	return matched
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveReconRun(outcome)
	}
}

// deriveState computes the canonical contract state from the ledger.
func deriveState(c *contracts.Contract, payments []contracts.Payment, now time.Time) contracts.ReconciledState {
	var totalPaid float64
	var lastPaid *time.Time
	for _, p := range payments {
		if p.Status != contracts.PaymentConfirmed {
			continue
		}
		totalPaid += p.Amount
		t := p.PaymentDate
		if lastPaid == nil || t.After(*lastPaid) {
			lastPaid = &t
		}
	}
	remaining := remainingOf(c.TotalAmount, totalPaid)

	state := contracts.ReconciledState{
		PaidAmount:  totalPaid,
		Status:      c.Status,
		CompletedAt: c.CompletedAt,
	}
	switch {
	case remaining <= 0 && c.Status != contracts.StatusCompleted:
		state.Status = contracts.StatusCompleted
		completed := now
		state.CompletedAt = &completed
	case totalPaid > 0 && c.Status == contracts.StatusPending:
		state.Status = contracts.StatusActive
	}
	if (state.Status == contracts.StatusActive || state.Status == contracts.StatusOngoing) && lastPaid != nil {
		next := lastPaid.AddDate(0, 1, 0)
		state.NextDueDate = &next
	} else {
		state.NextDueDate = c.NextDueDate
	}
	return state
}

func stateUnchanged(c *contracts.Contract, state contracts.ReconciledState) bool {
	return c.PaidAmount == state.PaidAmount &&
		c.Status == state.Status &&
		timeEqual(c.NextDueDate, state.NextDueDate) &&
		timeEqual(c.CompletedAt, state.CompletedAt)
}

func remainingOf(total, paid float64) float64 {
	remaining := total - paid
	if remaining < 0 {
		return 0
	}
	return remaining
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
