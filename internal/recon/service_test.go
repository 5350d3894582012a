package recon

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/shared"
)

type memStore struct {
	contract *contracts.Contract
	payments []contracts.Payment
	updates  int
}

func (m *memStore) GetContract(ctx context.Context, id int64) (*contracts.Contract, error) {
	if m.contract == nil || m.contract.ID != id {
		return nil, contracts.ErrNotFound
	}
	c := *m.contract
	return &c, nil
}

func (m *memStore) ListPayments(ctx context.Context, contractID int64) ([]contracts.Payment, error) {
	return m.payments, nil
}

func (m *memStore) UpdateReconciledState(ctx context.Context, id int64, state contracts.ReconciledState) error {
	m.updates++
	m.contract.PaidAmount = state.PaidAmount
	m.contract.Status = state.Status
	m.contract.NextDueDate = state.NextDueDate
	m.contract.CompletedAt = state.CompletedAt
	return nil
}

type memMirror struct {
	applied []contracts.ReconciledState
	exists  bool
	err     error
}

func (m *memMirror) Apply(ctx context.Context, contractNo string, state contracts.ReconciledState) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.applied = append(m.applied, state)
	return m.exists, nil
}

type memEvents struct {
	events    map[string]Event
	delivered map[string]bool
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[string]Event{}, delivered: map[string]bool{}}
}

func (m *memEvents) Insert(ctx context.Context, e Event) error {
	if _, ok := m.events[e.ID]; ok {
		return nil
	}
	m.events[e.ID] = e
	return nil
}

func (m *memEvents) MarkDelivered(ctx context.Context, id string) error {
	m.delivered[id] = true
	return nil
}

func (m *memEvents) ListUndelivered(ctx context.Context, limit int) ([]Event, error) {
	var out []Event
	for id, e := range m.events {
		if !m.delivered[id] && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type memObserver struct {
	outcomes       []string
	mirrorFailures int
}

func (m *memObserver) ObserveReconRun(outcome string) { m.outcomes = append(m.outcomes, outcome) }
func (m *memObserver) ObserveMirrorFailure()          { m.mirrorFailures++ }

func confirmed(amount float64, day int) contracts.Payment {
	return contracts.Payment{
		Amount:      amount,
		PaymentDate: time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		Status:      contracts.PaymentConfirmed,
	}
}

func newTestService(store *memStore, mirror *memMirror, events *memEvents, observer *memObserver) *Service {
	svc := NewService(store, mirror, events, shared.NewContractLocks(), slog.Default(), observer, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestReconcileRecomputesFromLedger(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-1", TotalAmount: 10000,
			PaidAmount: 99999, // stale denormalized value, ledger wins
			Status:     contracts.StatusActive,
		},
		payments: []contracts.Payment{
			confirmed(2000, 1),
			confirmed(3000, 15),
			{Amount: 5000, PaymentDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Status: contracts.PaymentCancelled},
			{Amount: 1000, PaymentDate: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), Status: contracts.PaymentPending},
		},
	}
	mirror := &memMirror{exists: true}
	events := newMemEvents()
	observer := &memObserver{}
	svc := newTestService(store, mirror, events, observer)

	result, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 5000.0, result.TotalPaid)
	require.Equal(t, 5000.0, result.Remaining)
	require.Equal(t, contracts.StatusActive, result.Status)
	require.Equal(t, OutcomeUpdated, result.Outcome)
	require.True(t, result.MirrorSynced)

	// nextDueDate projects one month past the last confirmed payment.
	require.NotNil(t, result.NextDueDate)
	require.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *result.NextDueDate)

	require.Equal(t, 1, store.updates)
	require.Len(t, mirror.applied, 1)
	require.Equal(t, []string{"updated"}, observer.outcomes)
}

func TestReconcileIdempotent(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-1", TotalAmount: 10000, Status: contracts.StatusActive,
		},
		payments: []contracts.Payment{confirmed(4000, 10)},
	}
	mirror := &memMirror{exists: true}
	svc := newTestService(store, mirror, newMemEvents(), &memObserver{})

	first, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, first.Outcome)

	second, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, second.Outcome)

	// The second run performs no write at all.
	require.Equal(t, 1, store.updates)
	require.Equal(t, first.TotalPaid, second.TotalPaid)
	require.Equal(t, first.Status, second.Status)
}

func TestReconcileCompletesContract(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-1", TotalAmount: 6000, Status: contracts.StatusActive,
		},
		payments: []contracts.Payment{confirmed(3000, 5), confirmed(3000, 20)},
	}
	svc := newTestService(store, &memMirror{exists: true}, newMemEvents(), &memObserver{})

	result, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, result.Outcome)
	require.Equal(t, contracts.StatusCompleted, result.Status)
	require.Equal(t, 0.0, result.Remaining)
	require.NotNil(t, result.CompletedAt)
}

func TestReconcileActivatesPendingOnFirstPayment(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-1", TotalAmount: 9000, Status: contracts.StatusPending,
		},
		payments: []contracts.Payment{confirmed(1000, 3)},
	}
	svc := newTestService(store, &memMirror{exists: true}, newMemEvents(), &memObserver{})

	result, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, contracts.StatusActive, result.Status)
}

func TestReconcileMirrorFailureDoesNotFailPrimary(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-1", TotalAmount: 10000, Status: contracts.StatusActive,
		},
		payments: []contracts.Payment{confirmed(2000, 7)},
	}
	mirror := &memMirror{err: errors.New("legacy db down")}
	events := newMemEvents()
	observer := &memObserver{}
	svc := newTestService(store, mirror, events, observer)

	result, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, result.Outcome)
	require.False(t, result.MirrorSynced)
	require.Equal(t, 1, store.updates)
	require.Equal(t, 1, observer.mirrorFailures)

	// The event stays queued for the drain pass.
	pending, err := events.ListUndelivered(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Mirror recovers; drain delivers the queued event.
	mirror.err = nil
	mirror.exists = true
	delivered, err := svc.DrainOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	pending, err = events.ListUndelivered(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestReconcileMissingContract(t *testing.T) {
	svc := newTestService(&memStore{}, &memMirror{}, newMemEvents(), &memObserver{})
	_, err := svc.Reconcile(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReconcileMissingMirrorIsNotAFailure(t *testing.T) {
	store := &memStore{
		contract: &contracts.Contract{
			ID: 1, ContractNo: "CT-NEW", TotalAmount: 10000, Status: contracts.StatusActive,
		},
		payments: []contracts.Payment{confirmed(500, 2)},
	}
	mirror := &memMirror{exists: false}
	events := newMemEvents()
	observer := &memObserver{}
	svc := newTestService(store, mirror, events, observer)

	result, err := svc.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, result.MirrorSynced)
	require.Zero(t, observer.mirrorFailures)

	// No mirror row means the event is considered handled, not retried.
	pending, err := events.ListUndelivered(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
