package debt

import (
	"context"
	"sync/atomic"
	"time"
)

// Criteria holds the provisioning thresholds used by the classifier.
// Percentages are fractions of the remaining balance.
type Criteria struct {
	ID               int64     `json:"id"`
	AllowancePct     float64   `json:"allowancePct" validate:"gte=0,lte=100"`
	DoubtfulPct      float64   `json:"doubtfulPct" validate:"gte=0,lte=100"`
	BadDebtPct       float64   `json:"badDebtPct" validate:"gte=0,lte=100"`
	RepossessionCost float64   `json:"repossessionCost" validate:"gte=0"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
}

// DefaultCriteria are the hardcoded provisioning thresholds applied until
// finance records an explicit policy. Percentages follow the standing
// allowance schedule: 5% watchlist, 15% doubtful, 50% written down.
func DefaultCriteria() Criteria {
	return Criteria{
		AllowancePct:     5,
		DoubtfulPct:      15,
		BadDebtPct:       50,
		RepossessionCost: 0,
		Notes:            "default provisioning schedule",
	}
}

// CalculateAllowance is the pure provisioning function: it maps an aging
// position and remaining balance to an allowance amount under the given
// criteria. It performs no I/O so the classifier can be tested without
// storage.
func CalculateAllowance(daysOverdue int, remaining float64, c Criteria) float64 {
	if remaining <= 0 {
		return 0
	}
	switch {
	case daysOverdue <= 30:
		return 0
	case daysOverdue <= 90:
		return remaining * c.AllowancePct / 100
	case daysOverdue <= 180:
		return remaining * c.DoubtfulPct / 100
	default:
		return remaining * c.BadDebtPct / 100
	}
}

// CriteriaHistory is the insert-only persistence behind the store. Rows are
// never updated or deleted; the newest row is the current policy.
type CriteriaHistory interface {
	Latest(ctx context.Context) (*Criteria, error)
	Insert(ctx context.Context, c Criteria) (*Criteria, error)
	List(ctx context.Context, limit int) ([]Criteria, error)
}

// CriteriaStore serves the current criteria from an atomically swapped
// in-process reference. Readers never block on storage and never observe a
// half-updated policy; absence falls back to the defaults rather than
// erroring.
type CriteriaStore struct {
	history CriteriaHistory
	current atomic.Pointer[Criteria]
}

// NewCriteriaStore constructs a store seeded with the defaults.
func NewCriteriaStore(history CriteriaHistory) *CriteriaStore {
	s := &CriteriaStore{history: history}
	def := DefaultCriteria()
	s.current.Store(&def)
	return s
}

// Warm loads the latest persisted criteria into the store. Called once at
// startup; a missing row is not an error.
func (s *CriteriaStore) Warm(ctx context.Context) error {
	latest, err := s.history.Latest(ctx)
	if err != nil {
		return err
	}
	if latest != nil {
		s.current.Store(latest)
	}
	return nil
}

// Current returns the active criteria. Never errors.
func (s *CriteriaStore) Current() Criteria {
	return *s.current.Load()
}

// Update appends a new policy row and swaps it in as current. History is
// immutable; the previous policy stays queryable for audit.
func (s *CriteriaStore) Update(ctx context.Context, c Criteria) (Criteria, error) {
	c.CreatedAt = time.Now().UTC()
	stored, err := s.history.Insert(ctx, c)
	if err != nil {
		return Criteria{}, err
	}
	s.current.Store(stored)
	return *stored, nil
}

// History lists recent policy rows, newest first.
func (s *CriteriaStore) History(ctx context.Context, limit int) ([]Criteria, error) {
	return s.history.List(ctx, limit)
}
