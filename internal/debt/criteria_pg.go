package debt

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCriteriaHistory is the insert-only criteria table. Policy changes append
// rows; nothing updates or deletes.
type PGCriteriaHistory struct {
	pool *pgxpool.Pool
}

// NewPGCriteriaHistory constructs the history over a pool.
func NewPGCriteriaHistory(pool *pgxpool.Pool) *PGCriteriaHistory {
	return &PGCriteriaHistory{pool: pool}
}

// Latest returns the newest policy row, or nil when none exists yet.
func (h *PGCriteriaHistory) Latest(ctx context.Context) (*Criteria, error) {
	query := `
		SELECT id, allowance_pct, doubtful_pct, bad_debt_pct, repossession_cost,
			COALESCE(notes, ''), created_at
		FROM debt_criteria
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var c Criteria
	err := h.pool.QueryRow(ctx, query).Scan(
		&c.ID, &c.AllowancePct, &c.DoubtfulPct, &c.BadDebtPct,
		&c.RepossessionCost, &c.Notes, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert appends a policy row and returns it with its assigned ID.
func (h *PGCriteriaHistory) Insert(ctx context.Context, c Criteria) (*Criteria, error) {
	query := `
		INSERT INTO debt_criteria (allowance_pct, doubtful_pct, bad_debt_pct, repossession_cost, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := h.pool.QueryRow(ctx, query,
		c.AllowancePct, c.DoubtfulPct, c.BadDebtPct, c.RepossessionCost, c.Notes, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns recent policy rows, newest first.
func (h *PGCriteriaHistory) List(ctx context.Context, limit int) ([]Criteria, error) {
	query := `
		SELECT id, allowance_pct, doubtful_pct, bad_debt_pct, repossession_cost,
			COALESCE(notes, ''), created_at
		FROM debt_criteria
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	rows, err := h.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Criteria
	for rows.Next() {
		var c Criteria
		err := rows.Scan(&c.ID, &c.AllowancePct, &c.DoubtfulPct, &c.BadDebtPct,
			&c.RepossessionCost, &c.Notes, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
