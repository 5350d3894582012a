package contracts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the contract does not exist or is soft-deleted.
var ErrNotFound = errors.New("contracts: not found")

// Repository provides PostgreSQL backed persistence for contracts and their
// payment ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contractColumns = `
	id, contract_no, customer_id, total_amount, paid_amount,
	monthly_payment, installment_count, due_date, next_due_date,
	status, branch_code, completed_at, created_at, updated_at, deleted_at`

// GetContract retrieves a contract by ID.
func (r *Repository) GetContract(ctx context.Context, id int64) (*Contract, error) {
	query := `SELECT` + contractColumns + `
		FROM installment_contracts
		WHERE id = $1 AND deleted_at IS NULL`
	return r.scanContract(r.pool.QueryRow(ctx, query, id))
}

// GetContractByNumber retrieves a contract by its contract number.
func (r *Repository) GetContractByNumber(ctx context.Context, contractNo string) (*Contract, error) {
	query := `SELECT` + contractColumns + `
		FROM installment_contracts
		WHERE contract_no = $1 AND deleted_at IS NULL`
	return r.scanContract(r.pool.QueryRow(ctx, query, contractNo))
}

func (r *Repository) scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	var dueDate, nextDueDate, completedAt, deletedAt pgtype.Timestamptz
	err := row.Scan(
		&c.ID, &c.ContractNo, &c.CustomerID, &c.TotalAmount, &c.PaidAmount,
		&c.MonthlyPayment, &c.InstallmentCount, &dueDate, &nextDueDate,
		&c.Status, &c.BranchCode, &completedAt, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.DueDate = timePtr(dueDate)
	c.NextDueDate = timePtr(nextDueDate)
	c.CompletedAt = timePtr(completedAt)
	c.DeletedAt = timePtr(deletedAt)
	return &c, nil
}

// ListPayments returns the full payment ledger for a contract ordered by
// payment date then ID, cancelled entries included.
func (r *Repository) ListPayments(ctx context.Context, contractID int64) ([]Payment, error) {
	query := `
		SELECT id, contract_id, amount, payment_date, method, status, created_at
		FROM installment_payments
		WHERE contract_id = $1
		ORDER BY payment_date, id`
	rows, err := r.pool.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.ContractID, &p.Amount, &p.PaymentDate, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdateReconciledState persists ledger-derived totals and status onto the
// contract. Reconciliation always writes absolute values, never increments.
func (r *Repository) UpdateReconciledState(ctx context.Context, id int64, state ReconciledState) error {
	query := `
		UPDATE installment_contracts
		SET paid_amount = $2, status = $3, next_due_date = $4, completed_at = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query,
		id,
		state.PaidAmount,
		state.Status,
		tsParam(state.NextDueDate),
		tsParam(state.CompletedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func tsParam(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
