package recon

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
)

// MirrorRepository writes reconciled state onto the legacy loan record
// matched by contract number. Not every contract has a mirror; absence is
// reported, not an error.
type MirrorRepository struct {
	pool *pgxpool.Pool
}

// NewMirrorRepository constructs the mirror writer.
func NewMirrorRepository(pool *pgxpool.Pool) *MirrorRepository {
	return &MirrorRepository{pool: pool}
}

// Apply pushes reconciled totals and status onto the mirror row. Returns
// whether a mirror existed for the contract number.
func (r *MirrorRepository) Apply(ctx context.Context, contractNo string, state contracts.ReconciledState) (bool, error) {
	query := `
		UPDATE legacy_loan_contracts
		SET paid_amount = $2, status = $3, last_synced_at = NOW()
		WHERE contract_no = $1`
	tag, err := r.pool.Exec(ctx, query, contractNo, state.PaidAmount, string(state.Status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
